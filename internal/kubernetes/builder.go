package kubernetes

import (
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	// defaultTargetPort is used for HTTP transports when the registry
	// entry does not declare one.
	defaultTargetPort = 8080

	containerName = "mcp-server"
)

// DeployConfig describes a server deployment requested through the console
type DeployConfig struct {
	// Name is the deployment name chosen by the user
	Name string

	// Namespace is the target namespace
	Namespace string

	// RegistryName is the registry the server definition came from
	RegistryName string

	// ServerName is the server's name within the registry
	ServerName string

	// Image is the container image reference, including tag
	Image string

	// Transport is the server's communication transport
	Transport string

	// TargetPort is the container port for HTTP transports
	TargetPort int

	// Args are additional command-line arguments for the container
	Args []string

	// EnvVars holds plain environment variable values keyed by name
	EnvVars map[string]string

	// SecretEnvVars holds sensitive environment variable values keyed by
	// name. These are stored in a Secret and referenced from the container.
	SecretEnvVars map[string]string
}

// DeploymentObjects holds the manifests built for one server deployment
type DeploymentObjects struct {
	Deployment *appsv1.Deployment
	Service    *corev1.Service
	// Secret is nil when the deployment has no secret environment variables
	Secret *corev1.Secret
}

// BuildDeploymentObjects renders the Kubernetes manifests for a server
// deployment: a Deployment, a Service exposing its port, and optionally a
// Secret holding sensitive environment variables.
func BuildDeploymentObjects(cfg *DeployConfig) (*DeploymentObjects, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("deployment name is required")
	}
	if cfg.Image == "" {
		return nil, fmt.Errorf("container image is required")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	labels := deploymentLabels(cfg.RegistryName, cfg.ServerName, cfg.Name)

	objects := &DeploymentObjects{}
	if len(cfg.SecretEnvVars) > 0 {
		objects.Secret = buildSecret(cfg, namespace, labels)
	}

	objects.Deployment = buildDeployment(cfg, namespace, labels, objects.Secret)
	objects.Service = buildService(cfg, namespace, labels)

	return objects, nil
}

func buildSecret(cfg *DeployConfig, namespace string, labels map[string]string) *corev1.Secret {
	data := make(map[string][]byte, len(cfg.SecretEnvVars))
	for name, value := range cfg.SecretEnvVars {
		data[name] = []byte(value)
	}

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      secretName(cfg.Name),
			Namespace: namespace,
			Labels:    labels,
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
}

func buildDeployment(cfg *DeployConfig, namespace string, labels map[string]string, secret *corev1.Secret) *appsv1.Deployment {
	replicas := int32(1)

	container := corev1.Container{
		Name:  containerName,
		Image: cfg.Image,
		Args:  cfg.Args,
		Env:   buildEnv(cfg, secret),
		Resources: corev1.ResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse("100m"),
				corev1.ResourceMemory: resource.MustParse("128Mi"),
			},
			Limits: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse("512Mi"),
			},
		},
	}

	if isHTTPTransport(cfg.Transport) {
		container.Ports = []corev1.ContainerPort{
			{
				Name:          "http",
				ContainerPort: int32(targetPort(cfg)),
				Protocol:      corev1.ProtocolTCP,
			},
		}
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.Name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{
					"app.kubernetes.io/name": cfg.Name,
				},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{container},
				},
			},
		},
	}
}

func buildService(cfg *DeployConfig, namespace string, labels map[string]string) *corev1.Service {
	port := targetPort(cfg)

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.Name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{
				"app.kubernetes.io/name": cfg.Name,
			},
			Ports: []corev1.ServicePort{
				{
					Name:       "http",
					Port:       int32(port),
					TargetPort: intstr.FromInt(port),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

// buildEnv renders the container environment. Plain values are inlined;
// secret values are referenced from the deployment's Secret. Entries are
// sorted so repeated builds produce identical manifests.
func buildEnv(cfg *DeployConfig, secret *corev1.Secret) []corev1.EnvVar {
	env := make([]corev1.EnvVar, 0, len(cfg.EnvVars)+len(cfg.SecretEnvVars))

	for name, value := range cfg.EnvVars {
		env = append(env, corev1.EnvVar{Name: name, Value: value})
	}

	if secret != nil {
		for name := range cfg.SecretEnvVars {
			env = append(env, corev1.EnvVar{
				Name: name,
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: secret.Name},
						Key:                  name,
					},
				},
			})
		}
	}

	sort.Slice(env, func(i, j int) bool { return env[i].Name < env[j].Name })
	return env
}

func targetPort(cfg *DeployConfig) int {
	if cfg.TargetPort > 0 {
		return cfg.TargetPort
	}
	return defaultTargetPort
}

func isHTTPTransport(transport string) bool {
	return transport == "sse" || transport == "streamable-http"
}

func secretName(deploymentName string) string {
	return deploymentName + "-env"
}
