package repository_test

import (
	"context"
	"errors"
	"testing"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/testutil"
)

func TestDailyLogRepositoryUniquePerDay(t *testing.T) {
	repo := repository.NewDailyLogRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByDate(ctx, "u1", "2024-01-10"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Create(ctx, &model.DailyLog{ID: "l1", UserID: "u1", Date: "2024-01-10"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &model.DailyLog{ID: "l2", UserID: "u1", Date: "2024-01-10"}); !errors.Is(err, repository.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := repo.Create(ctx, &model.DailyLog{ID: "l3", UserID: "u2", Date: "2024-01-10"}); err != nil {
		t.Errorf("another user's log must not collide: %v", err)
	}

	log, err := repo.FindByDate(ctx, "u1", "2024-01-10")
	if err != nil {
		t.Fatalf("FindByDate: %v", err)
	}
	log.Notes = "slept badly"
	if err := repo.Save(ctx, log); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := repo.FindByDate(ctx, "u1", "2024-01-10")
	if err != nil || reloaded.Notes != "slept badly" {
		t.Errorf("expected saved notes, got %+v %v", reloaded, err)
	}
}

func TestUserRepositoryUpsertFromTelegram(t *testing.T) {
	repo := repository.NewUserRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	first, err := repo.UpsertFromTelegram(ctx, 1001, 0, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	linked, err := repo.ListLinked(ctx)
	if err != nil {
		t.Fatalf("ListLinked: %v", err)
	}
	if len(linked) != 0 {
		t.Errorf("expected no linked users without a chat, got %v", linked)
	}

	second, err := repo.UpsertFromTelegram(ctx, 1001, 555, "Ann", "Lee", "ann")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same user, got %s and %s", first.ID, second.ID)
	}
	linked, err = repo.ListLinked(ctx)
	if err != nil {
		t.Fatalf("ListLinked: %v", err)
	}
	if len(linked) != 1 || linked[0].ChatID != 555 || linked[0].LastName != "Lee" {
		t.Errorf("unexpected linked users: %+v", linked)
	}
}

func TestTaskRepositoryScopesByUser(t *testing.T) {
	repo := repository.NewTaskRepository(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Task{ID: "t1", UserID: "u1", Title: "Mine"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.FindByID(ctx, "u2", "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found for another user, got %v", err)
	}
	if err := repo.Delete(ctx, "u2", "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found deleting another user's task, got %v", err)
	}
	task, err := repo.FindByID(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if task.Status != model.TaskStatusTodo || task.Priority != model.PriorityMedium {
		t.Errorf("expected column defaults, got %+v", task)
	}
}
