package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

func TestCreateRequest_Validate(t *testing.T) {
	color := func(s string) *string { return &s }

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{name: "defaults type", req: CreateRequest{SpacePublicID: "SPA-1", Name: " Todo "}},
		{name: "missing space", req: CreateRequest{Name: "Todo"}, wantErr: true},
		{name: "empty name", req: CreateRequest{SpacePublicID: "SPA-1", Name: "  "}, wantErr: true},
		{name: "long name", req: CreateRequest{SpacePublicID: "SPA-1", Name: string(make([]rune, 51))}, wantErr: true},
		{name: "bad type", req: CreateRequest{SpacePublicID: "SPA-1", Name: "x", Type: "Doing"}, wantErr: true},
		{name: "bad color", req: CreateRequest{SpacePublicID: "SPA-1", Name: "x", Color: color("red")}, wantErr: true},
		{name: "good color", req: CreateRequest{SpacePublicID: "SPA-1", Name: "x", Color: color("#A5F3FC")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TypeBacklog, tt.req.Type)
		})
	}
}

func TestDefaults(t *testing.T) {
	require.Len(t, Defaults, 3)
	assert.Equal(t, Default{Name: "Not started", Type: TypeBacklog, Color: "#f6d860"}, Defaults[0])
	assert.Equal(t, TypeCompleted, Defaults[2].Type)
}
