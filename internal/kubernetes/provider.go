package kubernetes

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Deployment phases reported to the console
const (
	// PhasePending means the deployment exists but has no ready replicas yet
	PhasePending = "Pending"

	// PhaseRunning means at least one replica is ready
	PhaseRunning = "Running"

	// PhaseFailed means the deployment cannot make progress
	PhaseFailed = "Failed"

	// PhaseTerminating means the deployment is being deleted
	PhaseTerminating = "Terminating"
)

// DeployedServer describes a server deployment visible in the console
type DeployedServer struct {
	Name         string `json:"name"`
	Namespace    string `json:"namespace"`
	RegistryName string `json:"registry"`
	ServerName   string `json:"serverName"`
	Status       string `json:"status"`
	Image        string `json:"image"`
	Ready        bool   `json:"ready"`
}

// DeploymentProvider manages server deployments in the cluster
type DeploymentProvider interface {
	// Deploy creates the manifests for a server deployment in the cluster
	Deploy(ctx context.Context, objects *DeploymentObjects) error

	// ListDeployedServers lists deployments created from the named registry.
	// An empty registryName lists console-managed deployments from all registries.
	ListDeployedServers(ctx context.Context, registryName string) ([]*DeployedServer, error)

	// GetDeployedServer returns the named deployment, or nil when not found
	GetDeployedServer(ctx context.Context, namespace, name string) (*DeployedServer, error)

	// GetDeployment returns the raw Deployment manifest for the named deployment
	GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error)

	// DeleteDeployedServer removes the deployment and its associated resources
	DeleteDeployedServer(ctx context.Context, namespace, name string) error
}

// K8sDeploymentProvider implements DeploymentProvider using the Kubernetes API
type K8sDeploymentProvider struct {
	client client.Client
}

// NewK8sDeploymentProvider creates a new Kubernetes-based deployment provider
func NewK8sDeploymentProvider(c client.Client) *K8sDeploymentProvider {
	return &K8sDeploymentProvider{client: c}
}

// Deploy creates the manifests for a server deployment in the cluster
func (p *K8sDeploymentProvider) Deploy(ctx context.Context, objects *DeploymentObjects) error {
	if objects.Secret != nil {
		if err := p.client.Create(ctx, objects.Secret); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	if err := p.client.Create(ctx, objects.Deployment); err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}

	if err := p.client.Create(ctx, objects.Service); err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

// ListDeployedServers lists deployments created from the named registry
func (p *K8sDeploymentProvider) ListDeployedServers(ctx context.Context, registryName string) ([]*DeployedServer, error) {
	selector := labels.Set{LabelManagedBy: ManagedByValue}
	if registryName != "" {
		selector[LabelRegistryName] = registryName
	}

	var deploymentList appsv1.DeploymentList
	if err := p.client.List(ctx, &deploymentList, &client.ListOptions{
		LabelSelector: labels.SelectorFromSet(selector),
	}); err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	servers := []*DeployedServer{}
	for i := range deploymentList.Items {
		servers = append(servers, newDeployedServer(&deploymentList.Items[i]))
	}
	return servers, nil
}

// GetDeployedServer returns the named deployment, or nil when not found
func (p *K8sDeploymentProvider) GetDeployedServer(ctx context.Context, namespace, name string) (*DeployedServer, error) {
	deployment, err := p.GetDeployment(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	if deployment == nil {
		return nil, nil
	}
	return newDeployedServer(deployment), nil
}

// GetDeployment returns the raw Deployment manifest for the named deployment
func (p *K8sDeploymentProvider) GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	var deployment appsv1.Deployment
	err := p.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &deployment)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
	}

	// Only expose console-managed deployments.
	if deployment.Labels[LabelManagedBy] != ManagedByValue {
		return nil, nil
	}

	return &deployment, nil
}

// DeleteDeployedServer removes the deployment and its associated resources
func (p *K8sDeploymentProvider) DeleteDeployedServer(ctx context.Context, namespace, name string) error {
	deployment, err := p.GetDeployment(ctx, namespace, name)
	if err != nil {
		return err
	}
	if deployment == nil {
		return fmt.Errorf("deployment %s/%s not found", namespace, name)
	}

	if err := p.client.Delete(ctx, deployment); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete deployment: %w", err)
	}

	service := &corev1.Service{}
	service.Namespace = namespace
	service.Name = name
	if err := p.client.Delete(ctx, service); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	secret := &corev1.Secret{}
	secret.Namespace = namespace
	secret.Name = secretName(name)
	if err := p.client.Delete(ctx, secret); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	return nil
}

// newDeployedServer maps a Deployment to the console's view of it
func newDeployedServer(deployment *appsv1.Deployment) *DeployedServer {
	server := &DeployedServer{
		Name:         deployment.Name,
		Namespace:    deployment.Namespace,
		RegistryName: deployment.Labels[LabelRegistryName],
		ServerName:   deployment.Labels[LabelServerRegistryName],
		Status:       deploymentPhase(deployment),
	}
	server.Ready = server.Status == PhaseRunning

	containers := deployment.Spec.Template.Spec.Containers
	if len(containers) > 0 {
		server.Image = containers[0].Image
	}

	return server
}

// deploymentPhase derives the console phase from deployment state
func deploymentPhase(deployment *appsv1.Deployment) string {
	if deployment.DeletionTimestamp != nil {
		return PhaseTerminating
	}

	if deployment.Status.ReadyReplicas > 0 {
		return PhaseRunning
	}

	for _, condition := range deployment.Status.Conditions {
		if condition.Type == appsv1.DeploymentProgressing &&
			condition.Status == corev1.ConditionFalse {
			return PhaseFailed
		}
		if condition.Type == appsv1.DeploymentReplicaFailure &&
			condition.Status == corev1.ConditionTrue {
			return PhaseFailed
		}
	}

	return PhasePending
}
