package admin

import (
	"context"
	"sort"
	"strings"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/workflow"

	"github.com/google/uuid"
)

func (s *DefaultAdminService) ListCoordinationStatuses(ctx context.Context) ([]models.CoordinationStatusConfig, error) {
	list, err := s.repos.Catalog.ListCoordinationStatuses(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].DisplayOrder < list[j].DisplayOrder })
	return list, nil
}

func validateTag(in CoordinationStatusInput) error {
	if strings.TrimSpace(in.Value) == "" || strings.TrimSpace(in.Label) == "" {
		return apperr.Validation("Value and label are required")
	}
	if !in.Category.Valid() {
		return apperr.Validation("Unknown category")
	}
	return nil
}

func (s *DefaultAdminService) CreateCoordinationStatus(ctx context.Context, adminID string, in CoordinationStatusInput) (*models.CoordinationStatusConfig, error) {
	if err := validateTag(in); err != nil {
		return nil, err
	}
	if existing, err := s.repos.Catalog.GetCoordinationStatusByValue(ctx, in.Value); err == nil && existing != nil {
		return nil, apperr.Conflict("Coordination status already exists")
	}
	now := s.now()
	tag := &models.CoordinationStatusConfig{
		ID:           uuid.New().String(),
		Value:        strings.TrimSpace(in.Value),
		Label:        strings.TrimSpace(in.Label),
		Category:     in.Category,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Catalog.CreateCoordinationStatus(ctx, tag); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "create_coordination_status", audit.TargetCatalog, tag.ID, map[string]string{"value": tag.Value})
	return tag, nil
}

// UpdateCoordinationStatus keeps Value fixed: requests reference tags by value.
func (s *DefaultAdminService) UpdateCoordinationStatus(ctx context.Context, adminID, id string, in CoordinationStatusInput) (*models.CoordinationStatusConfig, error) {
	tag, err := s.repos.Catalog.GetCoordinationStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Value = tag.Value
	if err := validateTag(in); err != nil {
		return nil, err
	}
	tag.Label = strings.TrimSpace(in.Label)
	tag.Category = in.Category
	tag.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		tag.IsActive = *in.IsActive
	}
	tag.UpdatedAt = s.now()
	if err := s.repos.Catalog.UpdateCoordinationStatus(ctx, tag); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "update_coordination_status", audit.TargetCatalog, tag.ID, map[string]string{"value": tag.Value})
	return tag, nil
}

func (s *DefaultAdminService) DeleteCoordinationStatus(ctx context.Context, adminID, id string) error {
	if err := s.repos.Catalog.DeleteCoordinationStatus(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, adminID, "delete_coordination_status", audit.TargetCatalog, id, nil)
	return nil
}

func (s *DefaultAdminService) ListCities(ctx context.Context) ([]models.City, error) {
	cities, err := s.repos.Catalog.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}

func (s *DefaultAdminService) cityExists(ctx context.Context, name, exceptID string) (bool, error) {
	cities, err := s.repos.Catalog.ListCities(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cities {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *DefaultAdminService) CreateCity(ctx context.Context, adminID, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("City name is required")
	}
	exists, err := s.cityExists(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("City already exists")
	}
	city := &models.City{ID: uuid.New().String(), Name: name, CreatedAt: s.now()}
	if err := s.repos.Catalog.CreateCity(ctx, city); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "create_city", audit.TargetCatalog, city.ID, map[string]string{"name": name})
	return city, nil
}

func (s *DefaultAdminService) UpdateCity(ctx context.Context, adminID, id, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("City name is required")
	}
	cities, err := s.repos.Catalog.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	var city *models.City
	for i := range cities {
		if cities[i].ID == id {
			city = &cities[i]
		} else if strings.EqualFold(cities[i].Name, name) {
			return nil, apperr.Conflict("City already exists")
		}
	}
	if city == nil {
		return nil, apperr.NotFound("City not found")
	}
	city.Name = name
	if err := s.repos.Catalog.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "update_city", audit.TargetCatalog, id, map[string]string{"name": name})
	return city, nil
}

func (s *DefaultAdminService) DeleteCity(ctx context.Context, adminID, id string) error {
	if err := s.repos.Catalog.DeleteCity(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, adminID, "delete_city", audit.TargetCatalog, id, nil)
	return nil
}

// ListStories returns stories ordered for display. A non-empty audience keeps
// stories aimed at that role or at everyone.
func (s *DefaultAdminService) ListStories(ctx context.Context, activeOnly bool, audience models.Role) ([]models.Story, error) {
	stories, err := s.repos.Catalog.ListStories(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := stories[:0]
	for _, st := range stories {
		if audience != models.RoleNone && st.Audience != "" && st.Audience != storyAudienceAll && st.Audience != string(audience) {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

const storyAudienceAll = "all"

func validStoryAudience(a string) bool {
	switch a {
	case "", storyAudienceAll, string(models.RoleClient), string(models.RoleTransporter):
		return true
	}
	return false
}

func (s *DefaultAdminService) CreateStory(ctx context.Context, adminID string, in StoryInput) (*models.Story, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("Title and content are required")
	}
	if !validStoryAudience(in.Audience) {
		return nil, apperr.Validation("Unknown audience")
	}
	now := s.now()
	story := &models.Story{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		MediaURL:     in.MediaURL,
		Audience:     in.Audience,
		IsActive:     in.IsActive == nil || *in.IsActive,
		DisplayOrder: in.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if story.Audience == "" {
		story.Audience = storyAudienceAll
	}
	if err := s.repos.Catalog.CreateStory(ctx, story); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "create_story", audit.TargetCatalog, story.ID, nil)
	return story, nil
}

func (s *DefaultAdminService) UpdateStory(ctx context.Context, adminID, id string, in StoryInput) (*models.Story, error) {
	story, err := s.repos.Catalog.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validStoryAudience(in.Audience) {
		return nil, apperr.Validation("Unknown audience")
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		story.Title = t
	}
	if in.Content != "" {
		story.Content = in.Content
	}
	if in.MediaURL != "" {
		story.MediaURL = in.MediaURL
	}
	if in.Audience != "" {
		story.Audience = in.Audience
	}
	if in.IsActive != nil {
		story.IsActive = *in.IsActive
	}
	story.DisplayOrder = in.DisplayOrder
	story.UpdatedAt = s.now()
	if err := s.repos.Catalog.UpdateStory(ctx, story); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "update_story", audit.TargetCatalog, id, nil)
	return story, nil
}

func (s *DefaultAdminService) DeleteStory(ctx context.Context, adminID, id string) error {
	if err := s.repos.Catalog.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, adminID, "delete_story", audit.TargetCatalog, id, nil)
	return nil
}

// categoryLabels names the dashboard buckets in exports.
var categoryLabels = map[workflow.Category]string{
	workflow.CategoryNew:      "Nouveau",
	workflow.CategoryInAction: "En action",
	workflow.CategoryPriority: "Prioritaires",
	workflow.CategoryArchived: "Archives",
}
