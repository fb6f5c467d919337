package kubernetes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func testDeployConfig() *DeployConfig {
	return &DeployConfig{
		Name:         "team2-fetch",
		Namespace:    "mcp-servers",
		RegistryName: "default",
		ServerName:   "fetch",
		Image:        "ghcr.io/example/fetch:1.2.0",
		Transport:    "streamable-http",
		TargetPort:   9000,
		Args:         []string{"--verbose"},
		EnvVars:      map[string]string{"TIMEOUT": "30"},
		SecretEnvVars: map[string]string{
			"API_KEY": "s3cret",
		},
	}
}

func TestBuildDeploymentObjects(t *testing.T) {
	t.Parallel()

	objects, err := BuildDeploymentObjects(testDeployConfig())
	require.NoError(t, err)

	deployment := objects.Deployment
	assert.Equal(t, "team2-fetch", deployment.Name)
	assert.Equal(t, "mcp-servers", deployment.Namespace)
	assert.Equal(t, "default", deployment.Labels[LabelRegistryName])
	assert.Equal(t, "fetch", deployment.Labels[LabelServerRegistryName])
	assert.Equal(t, ManagedByValue, deployment.Labels[LabelManagedBy])

	require.Len(t, deployment.Spec.Template.Spec.Containers, 1)
	container := deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "ghcr.io/example/fetch:1.2.0", container.Image)
	assert.Equal(t, []string{"--verbose"}, container.Args)
	require.Len(t, container.Ports, 1)
	assert.Equal(t, int32(9000), container.Ports[0].ContainerPort)

	service := objects.Service
	assert.Equal(t, "team2-fetch", service.Name)
	require.Len(t, service.Spec.Ports, 1)
	assert.Equal(t, int32(9000), service.Spec.Ports[0].Port)

	secret := objects.Secret
	require.NotNil(t, secret)
	assert.Equal(t, "team2-fetch-env", secret.Name)
	assert.Equal(t, []byte("s3cret"), secret.Data["API_KEY"])
}

func TestBuildDeploymentObjectsEnvSortedAndSecretRefs(t *testing.T) {
	t.Parallel()

	objects, err := BuildDeploymentObjects(testDeployConfig())
	require.NoError(t, err)

	env := objects.Deployment.Spec.Template.Spec.Containers[0].Env
	require.Len(t, env, 2)

	assert.Equal(t, "API_KEY", env[0].Name)
	require.NotNil(t, env[0].ValueFrom)
	assert.Equal(t, "team2-fetch-env", env[0].ValueFrom.SecretKeyRef.Name)
	assert.Equal(t, "API_KEY", env[0].ValueFrom.SecretKeyRef.Key)

	assert.Equal(t, "TIMEOUT", env[1].Name)
	assert.Equal(t, "30", env[1].Value)
	assert.Nil(t, env[1].ValueFrom)
}

func TestBuildDeploymentObjectsStdioHasNoPorts(t *testing.T) {
	t.Parallel()

	cfg := testDeployConfig()
	cfg.Transport = "stdio"
	cfg.SecretEnvVars = nil

	objects, err := BuildDeploymentObjects(cfg)
	require.NoError(t, err)

	assert.Empty(t, objects.Deployment.Spec.Template.Spec.Containers[0].Ports)
	assert.Nil(t, objects.Secret)
}

func TestBuildDeploymentObjectsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &DeployConfig{
		Name:      "fetch",
		Image:     "ghcr.io/example/fetch:latest",
		Transport: "sse",
	}

	objects, err := BuildDeploymentObjects(cfg)
	require.NoError(t, err)

	assert.Equal(t, DefaultNamespace, objects.Deployment.Namespace)
	assert.Equal(t, int32(defaultTargetPort), objects.Service.Spec.Ports[0].Port)
	assert.Equal(t, corev1.ProtocolTCP, objects.Service.Spec.Ports[0].Protocol)
}

func TestBuildDeploymentObjectsValidation(t *testing.T) {
	t.Parallel()

	_, err := BuildDeploymentObjects(&DeployConfig{Image: "img"})
	assert.Error(t, err)

	_, err = BuildDeploymentObjects(&DeployConfig{Name: "fetch"})
	assert.Error(t, err)
}
