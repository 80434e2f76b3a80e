package cfgfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFile(t *testing.T) {
	t.Run("scalar_and_list_keys", func(t *testing.T) {
		path := writeConfig(t, `# leading comment
REPORT_BUCKET: chargeback-reports

LICENSED_SERVICES:
- foo
- bar

BILLING_RATE: 0.25
`)

		values, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, values, 3)

		assert.False(t, values["REPORT_BUCKET"].IsList())
		assert.Equal(t, "chargeback-reports", values["REPORT_BUCKET"].Scalar())

		require.True(t, values["LICENSED_SERVICES"].IsList())
		assert.Equal(t, []string{"- foo", "- bar"}, values["LICENSED_SERVICES"].List())

		assert.Equal(t, "0.25", values["BILLING_RATE"].Scalar())
	})

	t.Run("list_preserves_order_and_length", func(t *testing.T) {
		path := writeConfig(t, "ITEMS:\nthird\nfirst\nsecond\n")

		values, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "first", "second"}, values["ITEMS"].List())
	})

	t.Run("comments_and_blank_lines_ignored", func(t *testing.T) {
		path := writeConfig(t, "# comment\n\nKEY: value\n# trailing comment\n")

		values, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.Equal(t, "value", values["KEY"].Scalar())
	})

	t.Run("value_keeps_colons_after_first", func(t *testing.T) {
		path := writeConfig(t, "ENDPOINT: https://store.example.com:9000\n")

		values, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "https://store.example.com:9000", values["ENDPOINT"].Scalar())
	})

	t.Run("last_key_flushed_at_eof", func(t *testing.T) {
		path := writeConfig(t, "FIRST: 1\nLAST:\nonly-member")

		values, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"only-member"}, values["LAST"].List())
	})

	t.Run("empty_block_key_dropped", func(t *testing.T) {
		path := writeConfig(t, "EMPTY:\nNEXT: value\n")

		values, err := ParseFile(path)
		require.NoError(t, err)
		_, ok := values["EMPTY"]
		assert.False(t, ok)
		assert.Equal(t, "value", values["NEXT"].Scalar())
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(t.TempDir(), "absent.cfg"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFileMissing)
	})

	t.Run("continuation_without_block_key", func(t *testing.T) {
		path := writeConfig(t, "KEY: scalar\nstray line\n")

		_, err := ParseFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected continuation line")
	})
}

func TestGet(t *testing.T) {
	t.Run("round_trips_scalar", func(t *testing.T) {
		path := writeConfig(t, "DATESTRING: 202408\n")

		value, err := Get("DATESTRING", path)
		require.NoError(t, err)
		assert.Equal(t, "202408", value.Scalar())
	})

	t.Run("missing_key", func(t *testing.T) {
		path := writeConfig(t, "PRESENT: yes\n")

		_, err := Get("ABSENT", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("suppressed_missing_key_returns_zero_value", func(t *testing.T) {
		path := writeConfig(t, "PRESENT: yes\n")

		value, err := GetSuppressed("ABSENT", path)
		require.NoError(t, err)
		assert.True(t, value.IsZero())
	})

	t.Run("suppression_does_not_hide_file_errors", func(t *testing.T) {
		_, err := GetSuppressed("ANY", filepath.Join(t.TempDir(), "absent.cfg"))
		assert.ErrorIs(t, err, ErrFileMissing)
	})
}

func TestGetScalarAndList(t *testing.T) {
	t.Run("scalar_accessor_rejects_list", func(t *testing.T) {
		path := writeConfig(t, "ITEMS:\na\nb\n")

		_, err := GetScalar("ITEMS", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a scalar")
	})

	t.Run("list_accessor_rejects_scalar", func(t *testing.T) {
		path := writeConfig(t, "KEY: value\n")

		_, err := GetList("KEY", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a list")
	})

	t.Run("list_members_keep_raw_markers", func(t *testing.T) {
		// Entries are returned exactly as written; the "- " marker is
		// part of the value, so prefix checks against the bare name
		// will not match. Callers depend on this staying as-is.
		path := writeConfig(t, "LICENSED_SERVICES:\n- foo\n- bar\n")

		list, err := GetList("LICENSED_SERVICES", path)
		require.NoError(t, err)
		assert.Equal(t, []string{"- foo", "- bar"}, list)
	})
}
