package csv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, byte(','), opts.Delimiter)
	assert.Equal(t, byte('"'), opts.Quote)
	assert.Equal(t, Flag(0), opts.Flags)
	assert.Equal(t, DefaultBlockSize, opts.BlockSize)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "zero value uses defaults", opts: Options{}},
		{name: "tab delimiter", opts: Options{Delimiter: '\t'}},
		{name: "quote equals delimiter", opts: Options{Delimiter: '\'', Quote: '\''}, wantErr: true},
		{name: "default quote clashes with quote delimiter", opts: Options{Delimiter: '"'}, wantErr: true},
		{name: "negative block size", opts: Options{BlockSize: -1}, wantErr: true},
		{name: "explicit block size", opts: Options{BlockSize: 4096}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))

				var oe *OptionsError
				assert.True(t, errors.As(err, &oe))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "malformed input", KindMalformed.String())
	assert.Equal(t, "unterminated quote", KindUnterminatedQuote.String())
	assert.Equal(t, "allocation failed", KindAllocFailed.String())
	assert.Equal(t, "field too large", KindFieldTooLarge.String())
	assert.Equal(t, "invalid configuration", KindInvalidConfig.String())
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Kind: KindMalformed, Consumed: 42, Err: ErrMalformed}
	assert.Equal(t, "csv: malformed input after 42 bytes", err.Error())
	assert.True(t, errors.Is(err, ErrMalformed))
}
