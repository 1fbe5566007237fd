package repository

import (
	"academic_backend/internal/model"
	"academic_backend/internal/testutil"
	"academic_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultGetOrCreateIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	teacher := testutil.Staff(t, db, model.Teacher)
	course := testutil.Course(t, db, teacher.ID)
	student := testutil.Student(t, db, 1)

	first, err := repo.GetOrCreate(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "F", first.Grade)
	assert.False(t, first.VisibleToStudent)

	again, err := repo.GetOrCreate(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestResultUpdateComponentsRecomputesGrade(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	teacher := testutil.Staff(t, db, model.Teacher)
	course := testutil.Course(t, db, teacher.ID)
	student := testutil.Student(t, db, 1)
	res, err := repo.GetOrCreate(ctx, student.ID, course.ID)
	require.NoError(t, err)

	res, err = repo.UpdateComponents(ctx, res.ID, map[string]interface{}{ColumnMidtermScore: 30.0}, 0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.OverallScore)
	assert.Equal(t, "F", res.Grade)

	res, err = repo.UpdateComponents(ctx, res.ID, map[string]interface{}{ColumnFinalScore: 55.0}, 0)
	require.NoError(t, err)
	require.NotNil(t, res.MidtermScore)
	assert.Equal(t, 85.0, res.OverallScore)
	assert.Equal(t, "A", res.Grade)

	res, err = repo.UpdateComponents(ctx, res.ID, map[string]interface{}{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.OverallScore)
	assert.Equal(t, "A+", res.Grade)

	stored, err := repo.FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, stored.OverallScore)

	_, err = repo.UpdateComponents(ctx, 9999, map[string]interface{}{ColumnFinalScore: 1.0}, 0)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}

func TestResultVisibilityFiltersStudentListing(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	teacher := testutil.Staff(t, db, model.Teacher)
	algebra := testutil.Course(t, db, teacher.ID)
	physics := testutil.Course(t, db, teacher.ID)
	student := testutil.Student(t, db, 1)

	hidden, err := repo.GetOrCreate(ctx, student.ID, algebra.ID)
	require.NoError(t, err)
	shown, err := repo.GetOrCreate(ctx, student.ID, physics.ID)
	require.NoError(t, err)

	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	revealed, err := repo.SetVisibility(ctx, shown.ID, true, teacher.ID, at)
	require.NoError(t, err)
	assert.True(t, revealed.VisibleToStudent)
	require.NotNil(t, revealed.RevealedBy)
	assert.Equal(t, teacher.ID, *revealed.RevealedBy)

	visible, err := repo.ListVisibleByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, shown.ID, visible[0].ID)

	all, err := repo.ListByCourse(ctx, algebra.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, hidden.ID, all[0].ID)

	rehidden, err := repo.SetVisibility(ctx, shown.ID, false, teacher.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, rehidden.VisibleToStudent)
	assert.Nil(t, rehidden.RevealedBy)
	assert.Nil(t, rehidden.RevealedAt)
	visible, err = repo.ListVisibleByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	again, err := repo.SetVisibility(ctx, shown.ID, true, teacher.ID, at.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.RevealedAt)
	assert.True(t, again.RevealedAt.Equal(at.Add(2*time.Hour)))
}
