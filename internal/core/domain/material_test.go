package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Matériel ABC123", DefaultName("ABC123"))
	assert.Equal(t, "Box-42", PrefixNamer("Box-")("42"))
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("ABC123"))
	assert.True(t, ValidCode(" padded "))
	assert.False(t, ValidCode(""))
	assert.False(t, ValidCode(" \t\n"))
}
