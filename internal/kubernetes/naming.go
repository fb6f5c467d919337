package kubernetes

// Label constants for deployed server identification
const (
	// LabelRegistryName is the label key for the registry a server was deployed from
	LabelRegistryName = "toolhive.stacklok.io/registry-name"

	// LabelServerRegistryName is the label key for the server's name within the registry
	LabelServerRegistryName = "toolhive.stacklok.io/server-name"

	// LabelManagedBy marks resources created by the console
	LabelManagedBy = "app.kubernetes.io/managed-by"

	// ManagedByValue is the value of the managed-by label on console resources
	ManagedByValue = "toolhive-console"
)

// DefaultNamespace is used when a registry does not scope its deployments
const DefaultNamespace = "default"

// deploymentLabels returns the labels applied to every resource created for
// a deployed server. The same labels select the resources on list and delete.
func deploymentLabels(registryName, serverName, deploymentName string) map[string]string {
	return map[string]string{
		LabelRegistryName:        registryName,
		LabelServerRegistryName:  serverName,
		LabelManagedBy:           ManagedByValue,
		"app.kubernetes.io/name": deploymentName,
	}
}
