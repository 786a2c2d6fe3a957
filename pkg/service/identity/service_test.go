package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/persistence/memory"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
)

type failingRepo struct{ err error }

func (f failingRepo) FindByExternalID(ctx context.Context, externalID string) (*model.IdentityRecord, bool, error) {
	return nil, false, f.err
}

func TestResolve(t *testing.T) {
	store := memory.NewStore()
	store.PutIdentity(model.IdentityRecord{ExternalID: "userA", InternalRef: "u-001"})
	store.PutIdentity(model.IdentityRecord{ExternalID: "empty", InternalRef: ""})
	svc := NewService(store)

	tests := []struct {
		name     string
		token    string
		want     string
		wantKind constant.ErrorKind
	}{
		{name: "已注册的令牌", token: "userA", want: "u-001"},
		{name: "未知令牌", token: "userB", wantKind: constant.KindNotFound},
		{name: "记录缺少 uref", token: "empty", wantKind: constant.KindNotFound},
		{name: "空令牌", token: "  ", wantKind: constant.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Resolve(context.Background(), tt.token)
			if tt.wantKind != "" {
				require.ErrorIs(t, err, constant.ErrIdentityNotFound)
				require.Equal(t, tt.wantKind, constant.Classify(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSurfacesStoreFailureAsTransient(t *testing.T) {
	svc := NewService(failingRepo{err: errors.New("connection reset")})

	_, err := svc.Resolve(context.Background(), "userA")
	require.Error(t, err)
	require.False(t, errors.Is(err, constant.ErrIdentityNotFound))
	require.True(t, constant.Classify(err).Retriable())
}
