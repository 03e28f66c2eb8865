package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"omibyte.io/bootcore/targets"
)

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in   string
		want targets.Memory
		ok   bool
	}{
		{"0x08000000:64K", targets.Memory{Origin: 0x0800_0000, Size: 64 * 1024}, true},
		{"536870912:0x2800", targets.Memory{Origin: 0x2000_0000, Size: 0x2800}, true},
		{"0x64000000:1M", targets.Memory{Origin: 0x6400_0000, Size: 1024 * 1024}, true},
		{"0x08000000", targets.Memory{}, false},
		{"0x108000000:1K", targets.Memory{}, false},
		{"0x08000000:lots", targets.Memory{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseMemory(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocales(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "C")
	t.Setenv("LANG", "de_DE.UTF-8")
	assert.Equal(t, []string{"de-DE", "en-US"}, locales())
}

func TestGenCommand(t *testing.T) {
	assert := assert.New(t)
	out := filepath.Join(t.TempDir(), "l151")

	rootCmd.SetArgs([]string{"gen", "--device", "stm32l151c8", "-o", out})
	if !assert.NoError(rootCmd.Execute()) {
		return
	}

	for _, name := range []string{"isr_vector.s", "target.ld", "startup.go"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(err, name)
	}
	_, err := os.Stat(filepath.Join(out, "board.go"))
	assert.True(os.IsNotExist(err))
}
