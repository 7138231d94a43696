package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/zalando/go-keyring"
)

const (
	// DefaultKeyringService is the keyring service TestRail secrets are stored under
	DefaultKeyringService = "testrail"
	// DefaultKeyringSecret is the keyring entry holding the TestRail API key
	DefaultKeyringSecret = "api_key"
)

// TemplateRenderer handles Jinja2-style template rendering using pongo2
type TemplateRenderer struct {
	context pongo2.Context
}

func init() {
	pongo2.RegisterFilter("keyring", keyringFilter)
}

// keyringFilter is a pongo2 filter that retrieves secrets from keyring
// Usage: {{ ''|keyring:'service,secret' }}
// If not provided, defaults to 'testrail,api_key'
func keyringFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	serviceName := DefaultKeyringService
	secretName := DefaultKeyringSecret

	if param.IsString() && param.String() != "" {
		parts := strings.Split(param.String(), ",")
		if len(parts) > 0 && parts[0] != "" {
			serviceName = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 && parts[1] != "" {
			secretName = strings.TrimSpace(parts[1])
		}
	}

	secret, err := GetKeyringSecret(serviceName, secretName)
	if err != nil {
		return nil, &pongo2.Error{
			Sender:    "filter:keyring",
			OrigError: err,
		}
	}

	return pongo2.AsValue(secret), nil
}

// NewTemplateRenderer creates a new template renderer with global environment variables
func NewTemplateRenderer() *TemplateRenderer {
	renderer := &TemplateRenderer{
		context: make(pongo2.Context),
	}

	envMap := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, found := strings.Cut(env, "=")
		if found {
			envMap[key] = value
		}
	}
	renderer.context["env"] = envMap

	return renderer
}

// Render renders a template string with the given context
func (r *TemplateRenderer) Render(templateStr string, params map[string]interface{}) (string, error) {
	ctx := pongo2.Context{}
	for k, v := range r.context {
		ctx[k] = v
	}
	for k, v := range params {
		ctx[k] = v
	}

	// Rendered output is YAML or markdown, never HTML.
	tpl, err := pongo2.FromString("{% autoescape off %}" + templateStr + "{% endautoescape %}")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	result, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return result, nil
}

func keyringNames(serviceName, secretName string) (string, string) {
	if serviceName == "" {
		serviceName = DefaultKeyringService
	}
	if secretName == "" {
		secretName = DefaultKeyringSecret
	}
	return serviceName, secretName
}

// GetKeyringSecret retrieves a secret from the system keyring
func GetKeyringSecret(serviceName, secretName string) (string, error) {
	serviceName, secretName = keyringNames(serviceName, secretName)

	secret, err := keyring.Get(serviceName, secretName)
	if err != nil {
		return "", fmt.Errorf("failed to get secret from keyring (service=%s, key=%s): %w", serviceName, secretName, err)
	}

	return secret, nil
}

// SetKeyringSecret stores a secret in the system keyring
func SetKeyringSecret(serviceName, secretName, secret string) error {
	serviceName, secretName = keyringNames(serviceName, secretName)

	if err := keyring.Set(serviceName, secretName, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring (service=%s, key=%s): %w", serviceName, secretName, err)
	}
	return nil
}

// DeleteKeyringSecret removes a secret from the system keyring
func DeleteKeyringSecret(serviceName, secretName string) error {
	serviceName, secretName = keyringNames(serviceName, secretName)

	if err := keyring.Delete(serviceName, secretName); err != nil {
		return fmt.Errorf("failed to delete secret from keyring (service=%s, key=%s): %w", serviceName, secretName, err)
	}
	return nil
}
