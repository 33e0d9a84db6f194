package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/models"
)

// Memory is a process-local Store used when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	museums  map[uuid.UUID]models.Museum
	archives map[uuid.UUID]models.ArchiveFile
	requests map[uuid.UUID]models.TourRequest
	plans    map[uuid.UUID]models.TourPlan
	now      func() time.Time
	last     time.Time
}

func NewMemory() *Memory {
	return &Memory{
		museums:  make(map[uuid.UUID]models.Museum),
		archives: make(map[uuid.UUID]models.ArchiveFile),
		requests: make(map[uuid.UUID]models.TourRequest),
		plans:    make(map[uuid.UUID]models.TourPlan),
		now:      time.Now,
	}
}

func (s *Memory) stamp(id *uuid.UUID, created *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		// creation times are strictly increasing so newest-first ordering is total
		t := s.now().UTC()
		if !t.After(s.last) {
			t = s.last.Add(time.Microsecond)
		}
		s.last = t
		*created = t
	}
}

func (s *Memory) CreateMuseum(_ context.Context, m *models.Museum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&m.ID, &m.CreatedAt)
	s.museums[m.ID] = *m
	return nil
}

func (s *Memory) GetMuseum(_ context.Context, id uuid.UUID) (*models.Museum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.museums[id]
	if !ok {
		return nil, apperr.NotFound("Museum not found")
	}
	return &m, nil
}

func (s *Memory) SetIndexHandle(_ context.Context, museumID uuid.UUID, handle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.museums[museumID]
	if !ok {
		return "", apperr.NotFound("Museum not found")
	}
	if m.HasIndex() {
		return *m.IndexHandle, nil
	}
	m.IndexHandle = &handle
	s.museums[museumID] = m
	return handle, nil
}

func (s *Memory) SaveFloorplan(_ context.Context, museumID uuid.UUID, fp models.FloorplanUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.museums[museumID]
	if !ok {
		return apperr.NotFound("Museum not found")
	}
	m.FloorplanNotes = fp.Notes
	m.Floorplan = fp.Structure
	if fp.ImagePath != nil {
		m.FloorplanImagePath = fp.ImagePath
	}
	s.museums[museumID] = m
	return nil
}

func (s *Memory) CreateArchiveFile(_ context.Context, f *models.ArchiveFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.museums[f.MuseumID]; !ok {
		return apperr.NotFound("Museum not found")
	}
	s.stamp(&f.ID, &f.CreatedAt)
	s.archives[f.ID] = *f
	return nil
}

func (s *Memory) ListArchiveFiles(_ context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error) {
	files := s.filter(func(f models.ArchiveFile) bool { return f.MuseumID == museumID })
	sort.SliceStable(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}

func (s *Memory) IngestableArchiveFiles(_ context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error) {
	files := s.filter(func(f models.ArchiveFile) bool { return f.MuseumID == museumID && f.Status.Ingestable() })
	sort.SliceStable(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

func (s *Memory) filter(keep func(models.ArchiveFile) bool) []models.ArchiveFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ArchiveFile
	for _, f := range s.archives {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s *Memory) UpdateArchiveFile(_ context.Context, id uuid.UUID, upd models.ArchiveUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.archives[id]
	if !ok {
		return apperr.NotFound("Archive file not found")
	}
	f.Status = upd.Status
	if upd.Error != nil {
		f.Error = upd.Error
	}
	if upd.StoragePath != nil {
		f.StoragePath = *upd.StoragePath
	}
	if upd.IndexFileID != nil {
		f.IndexFileID = upd.IndexFileID
	}
	s.archives[id] = f
	return nil
}

func (s *Memory) CreateTourRequest(_ context.Context, r *models.TourRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.museums[r.MuseumID]; !ok {
		return apperr.NotFound("Museum not found")
	}
	s.stamp(&r.ID, &r.CreatedAt)
	r.Interests = append([]string(nil), r.Interests...)
	s.requests[r.ID] = *r
	return nil
}

func (s *Memory) CreateTourPlan(_ context.Context, p *models.TourPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[p.TourRequestID]; !ok {
		return apperr.NotFound("Tour request not found")
	}
	for _, existing := range s.plans {
		if existing.TourRequestID == p.TourRequestID {
			return apperr.InvalidState("tour request %s already has a plan", p.TourRequestID)
		}
	}
	s.stamp(&p.ID, &p.CreatedAt)
	s.plans[p.ID] = *p
	return nil
}

func (s *Memory) GetTourPlan(_ context.Context, id uuid.UUID) (*models.TourPlanDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, apperr.NotFound("Tour not found")
	}
	return &models.TourPlanDetail{
		Plan:    p,
		Museum:  s.museums[p.MuseumID],
		Request: s.requests[p.TourRequestID],
	}, nil
}

// CountTourRequests returns how many tour requests exist for a museum.
func (s *Memory) CountTourRequests(museumID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.requests {
		if r.MuseumID == museumID {
			n++
		}
	}
	return n
}

func (s *Memory) Ping(context.Context) error { return nil }
