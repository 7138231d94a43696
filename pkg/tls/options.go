package tls

import (
	"fmt"

	"github.com/Purneema-rathod/goose-testrail/pkg/utils"
	"k8s.io/apimachinery/pkg/util/errors"
)

// ClientOptions controls how the TestRail client verifies the server certificate
type ClientOptions struct {
	// CACertFile is a PEM bundle trusted in addition to the system roots,
	// for TestRail instances behind an internal CA
	CACertFile string
	// InsecureSkipVerify disables certificate verification
	InsecureSkipVerify bool
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{}
}

// IsZero reports whether the options leave Go's default verification untouched
func (o *ClientOptions) IsZero() bool {
	return o == nil || (o.CACertFile == "" && !o.InsecureSkipVerify)
}

func (o *ClientOptions) Validate() error {
	var errs []error
	if o.CACertFile != "" && !utils.FileExists(o.CACertFile) {
		errs = append(errs, fmt.Errorf("ca_cert_file %s does not exist", o.CACertFile))
	}
	if o.CACertFile != "" && o.InsecureSkipVerify {
		errs = append(errs, fmt.Errorf("ca_cert_file and insecure_skip_verify are mutually exclusive"))
	}
	return errors.NewAggregate(errs)
}
