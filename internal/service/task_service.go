package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      model.TaskStatus   `json:"status"`
	Priority    model.TaskPriority `json:"priority"`
	Location    string             `json:"location"`
	Deadline    *time.Time         `json:"deadline"`
	IsRecurring bool               `json:"isRecurring"`
	Recurrence  *model.Recurrence  `json:"recurrencePattern"`
}

// TaskPatch carries the fields to change; nil fields are left alone.
type TaskPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *model.TaskStatus   `json:"status"`
	Priority    *model.TaskPriority `json:"priority"`
	Location    *string             `json:"location"`
	Deadline    *time.Time          `json:"deadline"`
	IsActive    *bool               `json:"isActive"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, cfg config.Config, log *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		loc:      cfg.Location(),
		now:      time.Now,
		log:      log.Named("task"),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.InvalidRequest.WithMessage("Title is required")
	}
	if input.Status == "" {
		input.Status = model.TaskStatusTodo
	}
	if !input.Status.IsValid() {
		return nil, apperr.InvalidRequest.WithMessage("Unknown status " + string(input.Status))
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, apperr.InvalidRequest.WithMessage("Unknown priority " + string(input.Priority))
	}

	now := s.now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Type:        model.KindTask,
		Location:    input.Location,
		Deadline:    utcPtr(input.Deadline),
		IsRecurring: input.IsRecurring,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.IsRecurring {
		if input.Recurrence == nil {
			return nil, apperr.InvalidRequest.WithMessage("Recurring task needs a recurrence pattern")
		}
		if err := input.Recurrence.Validate(); err != nil {
			return nil, apperr.InvalidRequest.WithMessage(err.Error())
		}
		task.Recurrence = *input.Recurrence
		task.IsActive = true
	}
	if task.IsCompleted() {
		task.CompletedAt = &now
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.log.Debug("task created", zap.String("user_id", userID), zap.String("task_id", task.ID), zap.Bool("recurring", task.IsRecurring))
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, userID, taskID)
}

// UpdateTask applies patch. Moving a task to completed stamps CompletedAt;
// moving it back clears it.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.InvalidRequest.WithMessage("Title is required")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, apperr.InvalidRequest.WithMessage("Unknown priority " + string(*patch.Priority))
		}
		task.Priority = *patch.Priority
	}
	if patch.Location != nil {
		task.Location = *patch.Location
	}
	if patch.Deadline != nil {
		task.Deadline = utcPtr(patch.Deadline)
	}
	if patch.IsActive != nil {
		task.IsActive = *patch.IsActive
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, apperr.InvalidRequest.WithMessage("Unknown status " + string(*patch.Status))
		}
		s.setStatus(task, *patch.Status)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask is the bot's shortcut for moving a task to completed.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	status := model.TaskStatusCompleted
	return s.UpdateTask(ctx, userID, taskID, TaskPatch{Status: &status})
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.taskRepo.Delete(ctx, userID, taskID)
}

// ListByStatus returns one board column. Recurring templates still waiting
// in todo only show up once their deadline is today or past.
func (s *TaskService) ListByStatus(ctx context.Context, userID string, status model.TaskStatus) ([]model.Task, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	if !status.IsValid() {
		return nil, apperr.InvalidRequest.WithMessage("Unknown status " + string(status))
	}
	tasks, err := s.taskRepo.ListByStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if status != model.TaskStatusTodo {
		return tasks, nil
	}

	today := model.DayOf(s.now(), s.loc)
	visible := tasks[:0]
	for _, task := range tasks {
		if !task.IsRecurring || (task.Deadline != nil && task.Deadline.Before(today.End)) {
			visible = append(visible, task)
		}
	}
	return visible, nil
}

// ListOpen returns the user's tasks not completed yet. Recurring templates
// are left out; their daily instances are listed instead.
func (s *TaskService) ListOpen(ctx context.Context, userID string) ([]model.Task, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	tasks, err := s.taskRepo.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	open := tasks[:0]
	for _, task := range tasks {
		if !task.IsRecurring {
			open = append(open, task)
		}
	}
	return open, nil
}

// ListUpcoming returns open tasks due within the next 24 hours.
func (s *TaskService) ListUpcoming(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	until := now.Add(24 * time.Hour)
	upcoming := tasks[:0]
	for _, task := range tasks {
		if task.Deadline != nil && !task.Deadline.Before(now) && !task.Deadline.After(until) {
			upcoming = append(upcoming, task)
		}
	}
	return upcoming, nil
}

// ListByPriority returns open tasks of one priority, earliest deadline first.
func (s *TaskService) ListByPriority(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error) {
	if !priority.IsValid() {
		return nil, apperr.InvalidRequest.WithMessage("Unknown priority " + string(priority))
	}
	tasks, err := s.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	matching := tasks[:0]
	for _, task := range tasks {
		if task.Priority == priority {
			matching = append(matching, task)
		}
	}
	return matching, nil
}

func (s *TaskService) setStatus(task *model.Task, status model.TaskStatus) {
	if task.Status == status {
		return
	}
	task.Status = status
	if status == model.TaskStatusCompleted {
		now := s.now().UTC()
		task.CompletedAt = &now
		return
	}
	task.CompletedAt = nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
