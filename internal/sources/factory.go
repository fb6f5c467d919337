package sources

import (
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stacklok/toolhive-console/internal/config"
)

// DefaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type DefaultSourceHandlerFactory struct {
	client client.Client
}

// NewSourceHandlerFactory creates a new source handler factory.
// The Kubernetes client may be nil when no ConfigMap sources are configured.
func NewSourceHandlerFactory(k8sClient client.Client) SourceHandlerFactory {
	return &DefaultSourceHandlerFactory{
		client: k8sClient,
	}
}

// CreateHandler creates a source handler for the given source type
func (f *DefaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeConfigMap:
		if f.client == nil {
			return nil, fmt.Errorf("configMap sources require a Kubernetes client")
		}
		return NewConfigMapSourceHandler(f.client), nil
	case config.SourceTypeGit:
		return NewGitSourceHandler(), nil
	case config.SourceTypeAPI:
		return NewAPISourceHandler(), nil
	case config.SourceTypeFile:
		return NewFileSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
