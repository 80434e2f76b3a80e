package chargeback

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platform-cfm/cfmstore/pkg/resource"
	"github.com/platform-cfm/cfmstore/pkg/resource/mocks"
)

func TestFindLine(t *testing.T) {
	lines := []string{
		"Report generated 2024-08-01",
		"Total instances: 42",
		"Total memory: 128 GB",
	}

	t.Run("first_match_wins", func(t *testing.T) {
		assert.Equal(t, "Total instances: 42", FindLine("Total", lines))
	})

	t.Run("substring_anywhere_in_line", func(t *testing.T) {
		assert.Equal(t, "Total memory: 128 GB", FindLine("memory", lines))
	})

	t.Run("no_match", func(t *testing.T) {
		assert.Equal(t, "", FindLine("disk", lines))
	})
}

func TestExtractValues(t *testing.T) {
	lines := []string{
		"Report generated 2024-08-01",
		"Total instances: 42",
		"Total memory: 128 GB",
	}

	t.Run("word_by_number", func(t *testing.T) {
		values, err := ExtractValues(lines, []string{"instances,3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"42"}, values)
	})

	t.Run("last_word", func(t *testing.T) {
		values, err := ExtractValues(lines, []string{"memory,last"})
		require.NoError(t, err)
		assert.Equal(t, []string{"GB"}, values)
	})

	t.Run("multiple_instructions_keep_order", func(t *testing.T) {
		values, err := ExtractValues(lines, []string{"memory,3", "instances,last"})
		require.NoError(t, err)
		assert.Equal(t, []string{"128", "42"}, values)
	})

	t.Run("missing_line", func(t *testing.T) {
		_, err := ExtractValues(lines, []string{"disk,1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no line containing "disk"`)
	})

	t.Run("word_number_out_of_range", func(t *testing.T) {
		_, err := ExtractValues(lines, []string{"instances,9"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no word #9")
	})

	t.Run("malformed_instruction", func(t *testing.T) {
		_, err := ExtractValues(lines, []string{"instances"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed extraction instruction")
	})
}

func TestExtractFromResource(t *testing.T) {
	t.Run("reads_remote_and_extracts", func(t *testing.T) {
		t.Chdir(t.TempDir())

		remote := mocks.NewMockObjectStore(t)
		remote.On("Bucket").Return("test-bucket")
		remote.On("Head", mock.Anything, "summary.txt").Return(nil).Once()
		remote.On("Download", mock.Anything, "summary.txt", "summary.txt").
			Run(func(args mock.Arguments) {
				require.NoError(t, os.WriteFile(args.String(2), []byte("Total instances: 42\n"), 0644))
			}).Return(nil).Once()

		store := resource.NewRemote(remote, "", zerolog.Nop())
		values, err := ExtractFromResource(context.Background(), store, "summary.txt",
			[]string{"instances,last"})
		require.NoError(t, err)
		assert.Equal(t, []string{"42"}, values)
	})

	t.Run("missing_resource_is_skipped", func(t *testing.T) {
		t.Chdir(t.TempDir())

		remote := mocks.NewMockObjectStore(t)
		remote.On("Bucket").Return("test-bucket")
		remote.On("Head", mock.Anything, "summary.txt").Return(resource.ErrNotFound).Once()

		store := resource.NewRemote(remote, "", zerolog.Nop())
		values, err := ExtractFromResource(context.Background(), store, "summary.txt",
			[]string{"instances,last"})
		require.NoError(t, err)
		assert.Nil(t, values)
	})
}
