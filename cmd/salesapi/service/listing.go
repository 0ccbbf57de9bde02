package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/cache"
	"github.com/helcity/homesales/common/config"
	"github.com/helcity/homesales/common/logger"
	rediscommon "github.com/helcity/homesales/common/redis"
)

// UnitInfo is the listing service's view of a housing unit
type UnitInfo struct {
	UnitUUID      uuid.UUID `json:"unit_uuid"`
	ProjectUUID   uuid.UUID `json:"project_uuid"`
	Title         string    `json:"title"`
	IsAvailable   bool      `json:"is_available"`
	OwnershipType string    `json:"ownership_type"`
}

// ProjectInfo is the listing service's view of a sales project
type ProjectInfo struct {
	ProjectUUID        uuid.UUID   `json:"project_uuid"`
	OwnershipType      string      `json:"ownership_type"`
	ApplicationEndTime time.Time   `json:"application_end_time"`
	UnitUUIDs          []uuid.UUID `json:"unit_uuids"`
}

// ListingLookup resolves units and projects against the external listing
// service
type ListingLookup interface {
	GetUnit(ctx context.Context, unitID uuid.UUID) (*UnitInfo, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectInfo, error)
}

// ListingService is the HTTP client for the listing service, with a Redis
// cache in front (falling back to the process-local cache when Redis is
// disabled). Listing data is read-only from this service's perspective.
type ListingService struct {
	baseURL    string
	httpClient *http.Client
	redis      *rediscommon.Client
	memCache   cache.Cache
	cacheTTL   time.Duration
	log        *logger.Logger
}

// NewListingService creates a new listing lookup client. redisClient and
// memCache may each be nil; caching degrades gracefully.
func NewListingService(cfg config.ListingConfig, redisClient *rediscommon.Client, memCache cache.Cache, log *logger.Logger) *ListingService {
	return &ListingService{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		redis:      redisClient,
		memCache:   memCache,
		cacheTTL:   cfg.CacheTTL,
		log:        log,
	}
}

// GetUnit resolves one unit
func (s *ListingService) GetUnit(ctx context.Context, unitID uuid.UUID) (*UnitInfo, error) {
	key := fmt.Sprintf("listing:unit:%s", unitID)

	unit := &UnitInfo{}
	if s.fromCache(ctx, key, unit) {
		return unit, nil
	}

	url := fmt.Sprintf("%s/v1/units/%s", s.baseURL, unitID)
	if err := s.fetch(ctx, url, unit); err != nil {
		return nil, fmt.Errorf("get unit %s: %w", unitID, err)
	}

	s.toCache(ctx, key, unit)
	return unit, nil
}

// GetProject resolves one project
func (s *ListingService) GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectInfo, error) {
	key := fmt.Sprintf("listing:project:%s", projectID)

	project := &ProjectInfo{}
	if s.fromCache(ctx, key, project) {
		return project, nil
	}

	url := fmt.Sprintf("%s/v1/projects/%s", s.baseURL, projectID)
	if err := s.fetch(ctx, url, project); err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}

	s.toCache(ctx, key, project)
	return project, nil
}

func (s *ListingService) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return apperr.NotFoundf("listing service has no record at %s", url)
	default:
		return fmt.Errorf("listing service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read listing response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode listing response: %w", err)
	}

	return nil
}

func (s *ListingService) fromCache(ctx context.Context, key string, out any) bool {
	if s.redis != nil {
		if raw, found, err := s.redis.Get(ctx, key); err == nil && found {
			if json.Unmarshal([]byte(raw), out) == nil {
				return true
			}
		}
	}

	if s.memCache != nil {
		if raw, found, err := s.memCache.Get(ctx, key); err == nil && found {
			if json.Unmarshal(raw, out) == nil {
				return true
			}
		}
	}

	return false
}

func (s *ListingService) toCache(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if s.redis != nil {
		if err := s.redis.SetWithExpiry(ctx, key, string(raw), s.cacheTTL); err == nil {
			return
		}
	}

	if s.memCache != nil {
		if err := s.memCache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.log.Debug("listing cache store failed", "key", key, "error", err)
		}
	}
}
