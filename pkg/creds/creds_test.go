package creds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBinding = `{
	"aws-s3": [
		{
			"credentials": {
				"access_key_id": "AKIATEST",
				"secret_access_key": "s3cret",
				"bucket": "chargeback-data",
				"kms_key_arn": "arn:aws:kms:us-east-1:123456789012:key/abcd-1234"
			}
		}
	]
}`

func TestResolve(t *testing.T) {
	t.Run("binding_env_wins", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", testBinding)

		source, err := Resolve(Options{
			BindingVar: "TEST_VCAP_SERVICES",
			CredFile:   filepath.Join(t.TempDir(), "absent.cfg"),
			Logger:     zerolog.Nop(),
		})
		require.NoError(t, err)

		assert.Equal(t, RemoteBacked, source.Mode())
		credentials, ok := source.Credentials()
		require.True(t, ok)
		assert.Equal(t, "AKIATEST", credentials.AccessKeyID)
		assert.Equal(t, "s3cret", credentials.SecretAccessKey)
		assert.Equal(t, "chargeback-data", credentials.Bucket)
		assert.Equal(t, "abcd-1234", credentials.EncryptionKeyID)
	})

	t.Run("binding_without_kms_key", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", `{
			"aws-s3": [{"credentials": {
				"access_key_id": "k", "secret_access_key": "s", "bucket": "b"
			}}]
		}`)

		source, err := Resolve(Options{BindingVar: "TEST_VCAP_SERVICES", Logger: zerolog.Nop()})
		require.NoError(t, err)
		credentials, _ := source.Credentials()
		assert.Empty(t, credentials.EncryptionKeyID)
	})

	t.Run("other_services_may_carry_non_string_credentials", func(t *testing.T) {
		// Real binding documents list every bound service; entries for
		// other services routinely hold numeric ports or nested objects
		// and must not break object-store resolution.
		t.Setenv("TEST_VCAP_SERVICES", `{
			"p-mysql": [{"credentials": {
				"hostname": "db.local", "port": 3306,
				"uri_components": {"scheme": "mysql"}
			}}],
			"aws-s3": [{"credentials": {
				"access_key_id": "AKIATEST", "secret_access_key": "s3cret",
				"bucket": "chargeback-data"
			}}]
		}`)

		source, err := Resolve(Options{BindingVar: "TEST_VCAP_SERVICES", Logger: zerolog.Nop()})
		require.NoError(t, err)

		assert.Equal(t, RemoteBacked, source.Mode())
		credentials, ok := source.Credentials()
		require.True(t, ok)
		assert.Equal(t, "chargeback-data", credentials.Bucket)
	})

	t.Run("binding_present_but_service_missing", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", `{"p-identity": [{"credentials": {"client_id": "x"}}]}`)

		_, err := Resolve(Options{BindingVar: "TEST_VCAP_SERVICES", Logger: zerolog.Nop()})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrServiceNotBound)
	})

	t.Run("binding_missing_required_field", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", `{
			"aws-s3": [{"credentials": {"access_key_id": "k", "secret_access_key": "s"}}]
		}`)

		_, err := Resolve(Options{BindingVar: "TEST_VCAP_SERVICES", Logger: zerolog.Nop()})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("binding_not_json", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "not json at all")

		_, err := Resolve(Options{BindingVar: "TEST_VCAP_SERVICES", Logger: zerolog.Nop()})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidBinding)
	})

	t.Run("credential_file_fallback", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "")

		credFile := filepath.Join(t.TempDir(), "aws.cfg")
		content := "access_key_id: AKIAFILE\n" +
			"secret_access_key: filesecret\n" +
			"bucket: file-bucket\n" +
			"kms_key_arn: arn:aws:kms:us-east-1:123456789012:key/file-key\n"
		require.NoError(t, os.WriteFile(credFile, []byte(content), 0600))

		source, err := Resolve(Options{
			BindingVar: "TEST_VCAP_SERVICES",
			CredFile:   credFile,
			Logger:     zerolog.Nop(),
		})
		require.NoError(t, err)

		credentials, ok := source.Credentials()
		require.True(t, ok)
		assert.Equal(t, "AKIAFILE", credentials.AccessKeyID)
		assert.Equal(t, "file-bucket", credentials.Bucket)
		assert.Equal(t, "file-key", credentials.EncryptionKeyID)
	})

	t.Run("credential_file_kms_key_optional", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "")

		credFile := filepath.Join(t.TempDir(), "aws.cfg")
		content := "access_key_id: k\nsecret_access_key: s\nbucket: b\n"
		require.NoError(t, os.WriteFile(credFile, []byte(content), 0600))

		source, err := Resolve(Options{
			BindingVar: "TEST_VCAP_SERVICES",
			CredFile:   credFile,
			Logger:     zerolog.Nop(),
		})
		require.NoError(t, err)
		credentials, _ := source.Credentials()
		assert.Empty(t, credentials.EncryptionKeyID)
	})

	t.Run("no_source_falls_back_to_local_only", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "")

		source, err := Resolve(Options{
			BindingVar: "TEST_VCAP_SERVICES",
			CredFile:   filepath.Join(t.TempDir(), "absent.cfg"),
			Logger:     zerolog.Nop(),
		})
		require.NoError(t, err)

		assert.Equal(t, LocalOnly, source.Mode())
		_, ok := source.Credentials()
		assert.False(t, ok)
	})

	t.Run("no_source_fatal_when_remote_required", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "")

		_, err := Resolve(Options{
			BindingVar:    "TEST_VCAP_SERVICES",
			CredFile:      filepath.Join(t.TempDir(), "absent.cfg"),
			RequireRemote: true,
			Logger:        zerolog.Nop(),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoCredentialSource)
	})
}

func TestKeyIDFromARN(t *testing.T) {
	tests := []struct {
		name string
		arn  string
		want string
	}{
		{name: "full_arn", arn: "arn:aws:kms:us-east-1:123456789012:key/abcd-1234", want: "abcd-1234"},
		{name: "bare_key_id", arn: "abcd-1234", want: "abcd-1234"},
		{name: "empty", arn: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyIDFromARN(tt.arn))
		})
	}
}

func TestFirstBoundService(t *testing.T) {
	t.Run("returns_first_service_credentials", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", testBinding)

		fields, err := FirstBoundService("TEST_VCAP_SERVICES")
		require.NoError(t, err)
		assert.Equal(t, "chargeback-data", fields["bucket"])
	})

	t.Run("non_string_values_rendered_as_json", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", `{
			"p-mysql": [{"credentials": {
				"hostname": "db.local", "port": 3306,
				"uri_components": {"scheme": "mysql"}
			}}]
		}`)

		fields, err := FirstBoundService("TEST_VCAP_SERVICES")
		require.NoError(t, err)
		assert.Equal(t, "db.local", fields["hostname"])
		assert.Equal(t, "3306", fields["port"])
		assert.Equal(t, `{"scheme":"mysql"}`, fields["uri_components"])
	})

	t.Run("unset_binding_var", func(t *testing.T) {
		t.Setenv("TEST_VCAP_SERVICES", "")

		_, err := FirstBoundService("TEST_VCAP_SERVICES")
		assert.ErrorIs(t, err, ErrNoCredentialSource)
	})
}
