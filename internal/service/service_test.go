package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"miora/internal/adapter/repo"
	"miora/internal/domain"
	"miora/internal/orchestrator"
	"miora/internal/processor"
)

type stubProcessor struct {
	result *processor.Result
	err    error
}

func (s *stubProcessor) Submit(ctx context.Context, kind domain.JobKind, inputRefs map[string]string) (*processor.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	return &result, nil
}

type env struct {
	orch     *orchestrator.Orchestrator
	avatars  *AvatarService
	garments *GarmentService
	tryon    *TryOnService
	jobs     *JobService
}

func newEnv(proc orchestrator.ProcessorClient) *env {
	logger := zerolog.Nop()
	orch := orchestrator.New(repo.NewMemoryJobRepository(), proc, logger)
	avatarRepo := newMemAvatars()
	garmentRepo := newMemGarments()
	sessionRepo := newMemSessions()
	return &env{
		orch:     orch,
		avatars:  NewAvatarService(avatarRepo, orch, logger),
		garments: NewGarmentService(garmentRepo, orch, logger),
		tryon:    NewTryOnService(sessionRepo, avatarRepo, garmentRepo, orch, logger),
		jobs:     NewJobService(orch),
	}
}

func validAvatarInput() CreateAvatarInput {
	return CreateAvatarInput{
		Name:           "Everyday",
		SourcePhotoURL: "https://cdn.example.com/u1/selfie.jpg",
		Measurements:   domain.Measurements{Height: 175, Chest: 95, Waist: 80, Hips: 95},
		BodyType:       domain.BodyTypeAthletic,
	}
}

func TestAvatarCreateEnqueuesPendingJob(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	avatar, job, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("job status = %s, want PENDING", job.Status)
	}
	if job.Kind != domain.KindAvatarGeneration {
		t.Fatalf("job kind = %s", job.Kind)
	}
	if job.InputRefs["avatar"] != avatar.ID || job.InputRefs["photo"] == "" {
		t.Fatalf("job input refs mismatch: %#v", job.InputRefs)
	}
	if avatar.ModelFileURL != "" {
		t.Fatalf("new avatar already has a model url: %q", avatar.ModelFileURL)
	}
}

func TestAvatarCreateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	cases := []struct {
		name   string
		mutate func(*CreateAvatarInput)
	}{
		{"missing name", func(in *CreateAvatarInput) { in.Name = " " }},
		{"missing photo", func(in *CreateAvatarInput) { in.SourcePhotoURL = "" }},
		{"unknown body type", func(in *CreateAvatarInput) { in.BodyType = "blocky" }},
		{"implausible height", func(in *CreateAvatarInput) { in.Measurements.Height = 10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validAvatarInput()
			tc.mutate(&input)
			if _, _, err := e.avatars.Create(ctx, "user-1", input); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAvatarCompletionHookAppliesModelRefs(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "generated/avatars/a1/model.glb", QualityScore: 0.88, ProcessingDurationMs: 2400}})

	avatar, job, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := e.orch.Dispatch(ctx, job.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	got, err := e.avatars.Get(ctx, "user-1", avatar.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModelFileURL != "generated/avatars/a1/model.glb" {
		t.Fatalf("model url = %q", got.ModelFileURL)
	}
	if got.ThumbnailURL != "generated/avatars/a1/model_thumb.png" {
		t.Fatalf("thumbnail url = %q", got.ThumbnailURL)
	}
}

func TestAvatarOwnership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	avatar, _, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.avatars.Get(ctx, "user-2", avatar.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestGarmentCreateNormalizesFields(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	garment, job, err := e.garments.Create(ctx, "user-1", CreateGarmentInput{
		Name:             "  Linen Shirt ",
		Brand:            "ACME apparel",
		Category:         domain.CategoryShirt,
		OriginalImageURL: "https://cdn.example.com/u1/shirt.jpg",
		Color:            "Navy",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if garment.Name != "Linen Shirt" {
		t.Fatalf("name = %q", garment.Name)
	}
	if garment.Brand != "Acme Apparel" {
		t.Fatalf("brand = %q", garment.Brand)
	}
	if garment.Color != "navy" {
		t.Fatalf("color = %q", garment.Color)
	}
	if job.Kind != domain.KindGarmentProcessing || job.InputRefs["garment"] != garment.ID {
		t.Fatalf("job mismatch: kind=%s refs=%#v", job.Kind, job.InputRefs)
	}
}

func TestGarmentCreateRejectsUnknownCategory(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	_, _, err := e.garments.Create(ctx, "user-1", CreateGarmentInput{
		Name:             "Mystery",
		Category:         "cape",
		OriginalImageURL: "https://cdn.example.com/u1/cape.jpg",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTryOnSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "generated/tryon/s1/render.png", QualityScore: 0.92, ProcessingDurationMs: 1500}})

	avatar, _, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("create avatar: %v", err)
	}
	garment, _, err := e.garments.Create(ctx, "user-1", CreateGarmentInput{
		Name:             "Jeans",
		Category:         domain.CategoryJeans,
		OriginalImageURL: "https://cdn.example.com/u1/jeans.jpg",
	})
	if err != nil {
		t.Fatalf("create garment: %v", err)
	}

	session, job, err := e.tryon.CreateSession(ctx, "user-1", CreateSessionInput{AvatarID: avatar.ID, GarmentID: garment.ID})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if job.Kind != domain.KindTryOnRender {
		t.Fatalf("job kind = %s", job.Kind)
	}
	if job.InputRefs["avatar"] != avatar.ID || job.InputRefs["garment"] != garment.ID || job.InputRefs["session"] != session.ID {
		t.Fatalf("job input refs mismatch: %#v", job.InputRefs)
	}

	if err := e.orch.Dispatch(ctx, job.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	got, err := e.tryon.GetSession(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ResultImageURL != "generated/tryon/s1/render.png" {
		t.Fatalf("result url = %q", got.ResultImageURL)
	}
	if got.FitScore == nil || *got.FitScore != 92 {
		t.Fatalf("fit score = %v, want 92", got.FitScore)
	}
}

func TestTryOnSessionRejectsForeignEntities(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	avatar, _, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("create avatar: %v", err)
	}
	garment, _, err := e.garments.Create(ctx, "user-2", CreateGarmentInput{
		Name:             "Jacket",
		Category:         domain.CategoryJacket,
		OriginalImageURL: "https://cdn.example.com/u2/jacket.jpg",
	})
	if err != nil {
		t.Fatalf("create garment: %v", err)
	}

	_, _, err = e.tryon.CreateSession(ctx, "user-1", CreateSessionInput{AvatarID: avatar.ID, GarmentID: garment.ID})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestTryOnFailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{err: &processor.Error{Reason: processor.ReasonRejected, Detail: "status 422: garment occluded"}})

	avatar, _, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("create avatar: %v", err)
	}
	garment, _, err := e.garments.Create(ctx, "user-1", CreateGarmentInput{
		Name:             "Coat",
		Category:         domain.CategoryCoat,
		OriginalImageURL: "https://cdn.example.com/u1/coat.jpg",
	})
	if err != nil {
		t.Fatalf("create garment: %v", err)
	}
	session, job, err := e.tryon.CreateSession(ctx, "user-1", CreateSessionInput{AvatarID: avatar.ID, GarmentID: garment.ID})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := e.orch.Dispatch(ctx, job.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	gotJob, err := e.jobs.Get(ctx, "user-1", job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if gotJob.Status != domain.JobStatusFailed || gotJob.ErrorDetail == "" {
		t.Fatalf("job = %+v, want FAILED with detail", gotJob)
	}
	gotSession, err := e.tryon.GetSession(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if gotSession.ResultImageURL != "" || gotSession.FitScore != nil {
		t.Fatalf("failed render mutated session: %+v", gotSession)
	}
}

func TestJobServiceOwnership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(&stubProcessor{result: &processor.Result{ResultRef: "r", QualityScore: 0.5, ProcessingDurationMs: 1}})

	_, job, err := e.avatars.Create(ctx, "user-1", validAvatarInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := e.jobs.Get(ctx, "user-2", job.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("get: err = %v, want ErrUnauthorized", err)
	}
	if err := e.jobs.Dispatch(ctx, "user-2", job.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("dispatch: err = %v, want ErrUnauthorized", err)
	}
	if _, err := e.jobs.Cancel(ctx, "user-2", job.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("cancel: err = %v, want ErrUnauthorized", err)
	}

	if err := e.jobs.Dispatch(ctx, "user-1", job.ID); err != nil {
		t.Fatalf("owner dispatch: %v", err)
	}
}
