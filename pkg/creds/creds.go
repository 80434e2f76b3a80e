// Package creds resolves object-store credentials for the resource layer.
//
// Resolution is attempted in a fixed order: the platform service-binding
// environment variable first, then a local credential file, and finally
// local-only mode when neither source exists. The outcome is captured in an
// immutable Source whose mode never changes for the lifetime of whatever
// component holds it.
package creds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/platform-cfm/cfmstore/pkg/cfgfile"
)

const (
	// DefaultBindingVar is the environment variable carrying service bindings.
	DefaultBindingVar = "VCAP_SERVICES"
	// DefaultServiceName is the binding entry for the object store.
	DefaultServiceName = "aws-s3"
	// DefaultCredFile is the local credential file consulted when no
	// binding is present.
	DefaultCredFile = "aws.cfg"
)

var (
	ErrNoCredentialSource = errors.New("no credential source found")
	ErrServiceNotBound    = errors.New("service not bound")
	ErrInvalidBinding     = errors.New("invalid service binding document")
)

// Credentials holds resolved object-store credentials.
// EncryptionKeyID is empty when the binding carries no KMS key.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	EncryptionKeyID string
}

// Mode says whether resource I/O is remote-backed or local-only.
type Mode int

const (
	LocalOnly Mode = iota
	RemoteBacked
)

func (m Mode) String() string {
	if m == RemoteBacked {
		return "remote-backed"
	}
	return "local-only"
}

// Source is the immutable result of credential resolution.
type Source struct {
	mode  Mode
	creds Credentials
}

// Mode returns the resolved store mode.
func (s Source) Mode() Mode { return s.mode }

// Credentials returns the resolved credentials. The second return is false
// in local-only mode, in which case the Credentials value is zero.
func (s Source) Credentials() (Credentials, bool) {
	return s.creds, s.mode == RemoteBacked
}

// Options controls where Resolve looks. Zero values select the defaults.
type Options struct {
	BindingVar  string
	ServiceName string
	CredFile    string

	// RequireRemote makes the absence of any credential source an error
	// instead of a silent fall back to local-only mode.
	RequireRemote bool

	Logger zerolog.Logger
}

func (o *Options) defaults() {
	if o.BindingVar == "" {
		o.BindingVar = DefaultBindingVar
	}
	if o.ServiceName == "" {
		o.ServiceName = DefaultServiceName
	}
	if o.CredFile == "" {
		o.CredFile = DefaultCredFile
	}
}

// Resolve determines the store mode and credentials. It performs no network
// calls; it only inspects the environment and the local filesystem.
func Resolve(opts Options) (Source, error) {
	opts.defaults()

	if doc := os.Getenv(opts.BindingVar); doc != "" {
		creds, err := fromBinding(doc, opts.ServiceName)
		if err != nil {
			return Source{}, err
		}
		opts.Logger.Debug().
			Str("source", opts.BindingVar).
			Str("bucket", creds.Bucket).
			Msg("credentials resolved from service binding")
		return Source{mode: RemoteBacked, creds: creds}, nil
	}

	if fileExists(opts.CredFile) {
		creds, err := fromCredFile(opts.CredFile)
		if err != nil {
			return Source{}, err
		}
		opts.Logger.Debug().
			Str("source", opts.CredFile).
			Str("bucket", creds.Bucket).
			Msg("credentials resolved from credential file")
		return Source{mode: RemoteBacked, creds: creds}, nil
	}

	if opts.RequireRemote {
		return Source{}, fmt.Errorf("%w: %s not set and %s not present",
			ErrNoCredentialSource, opts.BindingVar, opts.CredFile)
	}

	opts.Logger.Info().
		Str("binding_var", opts.BindingVar).
		Str("cred_file", opts.CredFile).
		Msg("no credential source found, operating local-only")
	return Source{mode: LocalOnly}, nil
}

// binding mirrors the service-binding document: service type -> bindings.
// Credentials stay raw here because other bound services are free to carry
// numeric or nested credential values; only the target service's entry is
// decoded further.
type binding map[string][]struct {
	Credentials json.RawMessage `json:"credentials"`
}

func fromBinding(doc, serviceName string) (Credentials, error) {
	if err := validate(bindingSchema, doc); err != nil {
		return Credentials{}, err
	}

	var services binding
	if err := json.Unmarshal([]byte(doc), &services); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}

	bindings, ok := services[serviceName]
	if !ok || len(bindings) == 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrServiceNotBound, serviceName)
	}

	raw := bindings[0].Credentials
	if err := validate(objectStoreSchema, string(raw)); err != nil {
		return Credentials{}, err
	}

	fields, err := credentialFields(raw)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		AccessKeyID:     fields["access_key_id"],
		SecretAccessKey: fields["secret_access_key"],
		Bucket:          fields["bucket"],
		EncryptionKeyID: keyIDFromARN(fields["kms_key_arn"]),
	}, nil
}

// credentialFields flattens one binding's credentials object to strings.
// String values pass through; anything else (ports, nested objects) is
// rendered as compact JSON.
func credentialFields(raw json.RawMessage) (map[string]string, error) {
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}

	fields := make(map[string]string, len(values))
	for key, value := range values {
		if s, ok := value.(string); ok {
			fields[key] = s
			continue
		}
		rendered, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
		}
		fields[key] = string(rendered)
	}
	return fields, nil
}

func fromCredFile(filename string) (Credentials, error) {
	accessKey, err := cfgfile.GetScalar("access_key_id", filename)
	if err != nil {
		return Credentials{}, err
	}
	secretKey, err := cfgfile.GetScalar("secret_access_key", filename)
	if err != nil {
		return Credentials{}, err
	}
	bucket, err := cfgfile.GetScalar("bucket", filename)
	if err != nil {
		return Credentials{}, err
	}
	// The KMS key is optional in the credential file.
	kmsARN, err := cfgfile.GetSuppressed("kms_key_arn", filename)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Bucket:          bucket,
		EncryptionKeyID: keyIDFromARN(kmsARN.Scalar()),
	}, nil
}

// FirstBoundService returns the credentials object of the first bound
// service of any type, for the credential-display front end. The iteration
// order over service types is unspecified when more than one is bound.
func FirstBoundService(bindingVar string) (map[string]string, error) {
	if bindingVar == "" {
		bindingVar = DefaultBindingVar
	}
	doc := os.Getenv(bindingVar)
	if doc == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoCredentialSource, bindingVar)
	}
	if err := validate(bindingSchema, doc); err != nil {
		return nil, err
	}

	var services binding
	if err := json.Unmarshal([]byte(doc), &services); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	for _, bindings := range services {
		if len(bindings) > 0 {
			return credentialFields(bindings[0].Credentials)
		}
	}
	return nil, fmt.Errorf("%w: no services in %s", ErrServiceNotBound, bindingVar)
}

func validate(schema, document string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidBinding, strings.Join(descs, "; "))
	}
	return nil
}

// keyIDFromARN keeps only the trailing segment of a key ARN such as
// "arn:aws:kms:us-east-1:123456789:key/<key-id>".
func keyIDFromARN(arn string) string {
	if arn == "" {
		return ""
	}
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}
