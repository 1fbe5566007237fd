package service

import (
	"academic_backend/internal/model"
	"academic_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	class := uint(3)

	user, err := env.identity.Register(ctx, RegisterInput{
		Name: "Grace", Email: " Grace@Example.com ", Phone: "+15550123", Password: "s3cret-pass", Role: model.Student, ClassID: &class,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)
	require.NotNil(t, user.ClassID)
	assert.Equal(t, class, *user.ClassID)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	token, logged, err := env.identity.Login(ctx, "GRACE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	claims, err := util.ParseJWT(token, env.identity.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, env.clock().Equal(*stored.LastLogin))

	_, _, err = env.identity.Login(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, _, err = env.identity.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	require.NoError(t, env.db.Model(stored).Update("disabled", true).Error)
	_, _, err = env.identity.Login(ctx, "grace@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestRegisterRejectsTakenContact(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	_, err := env.identity.Register(ctx, RegisterInput{Name: "T", Email: "t@example.com", Phone: "+1555", Password: "pw", Role: model.Teacher})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"same email other role", RegisterInput{Name: "S", Email: "T@example.com", Password: "pw", Role: model.Student}},
		{"same phone", RegisterInput{Name: "H", Email: "h@example.com", Phone: "+1555", Password: "pw", Role: model.DepartmentHead}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.identity.Register(ctx, tt.in)
			assert.ErrorIs(t, err, util.ErrDuplicateContact)
		})
	}

	_, err = env.identity.Register(ctx, RegisterInput{Name: "X", Email: "x@example.com", Password: "pw", Role: "janitor"})
	assert.Equal(t, util.KindInvalidInput, util.KindOf(err))
}

func TestRegisterIgnoresClassForStaff(t *testing.T) {
	env := newEnv(t)
	class := uint(9)
	user, err := env.identity.Register(context.Background(), RegisterInput{
		Name: "Head", Email: "head@example.com", Password: "pw", Role: model.DepartmentHead, ClassID: &class,
	})
	require.NoError(t, err)
	assert.Nil(t, user.ClassID)
}
