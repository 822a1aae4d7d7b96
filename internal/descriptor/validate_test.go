package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "valid",
			src: `
models:
  - name: A
    relations: [{name: bs, type: hasManyThrough, model: B, through: AB}]
routes:
  - {method: A.prototype.x, verb: DEL, path: /a/:id, status: 201}
`,
		},
		{
			name:    "method without class",
			src:     "routes: [{method: find, verb: get, path: /a}]",
			wantErr: "Method",
		},
		{
			name:    "unknown verb",
			src:     "routes: [{method: A.find, verb: trace, path: /a}]",
			wantErr: "unsupported verb",
		},
		{
			name:    "missing path",
			src:     "routes: [{method: A.find, verb: get}]",
			wantErr: "Path",
		},
		{
			name:    "accept without arg",
			src:     "routes: [{method: A.find, verb: get, path: /a, accepts: [{type: string}]}]",
			wantErr: "Arg",
		},
		{
			name:    "error without code",
			src:     "routes: [{method: A.find, verb: get, path: /a, errors: [{message: boom}]}]",
			wantErr: "Code",
		},
		{
			name:    "status out of range",
			src:     "routes: [{method: A.find, verb: get, path: /a, status: 42}]",
			wantErr: "Status",
		},
		{
			name:    "model without name",
			src:     "models: [{public: true}]",
			wantErr: "Name",
		},
		{
			name:    "unknown relation kind",
			src:     "models: [{name: A, relations: [{name: r, type: embedsMany, model: B}]}]",
			wantErr: "Type",
		},
		{
			name:    "through model missing",
			src:     "models: [{name: A, relations: [{name: r, type: hasManyThrough, model: B}]}]",
			wantErr: "Through",
		},
		{
			name:    "duplicate model",
			src:     "models: [{name: A}, {name: A}]",
			wantErr: `duplicate model "A"`,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tc.src))
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_NilEntries(t *testing.T) {
	t.Parallel()
	app := &Application{Models: []*Model{nil}}
	err := app.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}
