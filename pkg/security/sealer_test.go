package security

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T) TextSealer {
	t.Helper()
	s, err := NewAESSealer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return s
}

func TestSealOpen(t *testing.T) {
	s := newSealer(t)
	binding := RecordBinding(uuid.New(), "user-1")

	plain := []byte("Tab. Napa 500mg 1+0+1 x ৭ দিন")
	sealed, err := s.Seal(plain, binding)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "Napa")
	assert.Equal(t, sealVersion, sealed[0])

	again, err := s.Seal(plain, binding)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	opened, err := s.Open(sealed, binding)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestOpenRejectsOtherRecord(t *testing.T) {
	s := newSealer(t)
	id := uuid.New()

	sealed, err := s.Seal([]byte("CBC, S. Creatinine"), RecordBinding(id, "user-1"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		binding []byte
	}{
		{"other analysis", RecordBinding(uuid.New(), "user-1")},
		{"other user", RecordBinding(id, "user-2")},
		{"no binding", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Open(sealed, tt.binding)
			assert.ErrorIs(t, err, ErrOpen)
		})
	}
}

func TestSealerErrors(t *testing.T) {
	_, err := NewAESSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	s, err := NewAESSealer([]byte("0123456789abcdef"))
	require.NoError(t, err)
	binding := RecordBinding(uuid.New(), "user-1")

	_, err = s.Open([]byte("x"), binding)
	assert.ErrorIs(t, err, ErrOpen)

	sealed, err := s.Seal([]byte("CBC"), binding)
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = s.Open(tampered, binding)
	assert.ErrorIs(t, err, ErrOpen)

	wrongVersion := append([]byte(nil), sealed...)
	wrongVersion[0] = sealVersion + 1
	_, err = s.Open(wrongVersion, binding)
	assert.ErrorIs(t, err, ErrOpen)
}
