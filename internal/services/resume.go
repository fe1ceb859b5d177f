package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jobscout/internal/models"
)

const defaultMinSkillScore = 0.5

type ResumeService interface {
	BuildProfile(ctx context.Context, doc models.RawDocument) (*models.CandidateProfile, error)
}

type resumeService struct {
	parser        PDFParserService
	inference     InferenceService
	minSkillScore float64
	logger        *zap.Logger
}

func NewResumeService(parser PDFParserService, inference InferenceService, minSkillScore float64, logger *zap.Logger) ResumeService {
	if minSkillScore <= 0 {
		minSkillScore = defaultMinSkillScore
	}

	return &resumeService{
		parser:        parser,
		inference:     inference,
		minSkillScore: minSkillScore,
		logger:        logger,
	}
}

// BuildProfile implements ResumeService. The two inference calls are
// independent, so they run concurrently and join before the profile is
// assembled. One failed call is absorbed: skills without role keywords (or
// the reverse) are still useful. Only when both calls fail does the whole
// orchestration fail.
func (s *resumeService) BuildProfile(ctx context.Context, doc models.RawDocument) (*models.CandidateProfile, error) {
	text, err := s.parser.Extract(doc)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResume
	}

	var (
		wg         sync.WaitGroup
		skillPreds []models.InferencePrediction
		rolePreds  []models.InferencePrediction
		skillErr   error
		roleErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		skillPreds, skillErr = s.inference.Predict(ctx, text, models.TaskSkillExtraction)
	}()
	go func() {
		defer wg.Done()
		rolePreds, roleErr = s.inference.Predict(ctx, text, models.TaskRoleClassification)
	}()
	wg.Wait()

	if skillErr != nil && roleErr != nil {
		return nil, fmt.Errorf("%w: skill extraction: %v; role classification: %v",
			ErrProfileBuildFailed, skillErr, roleErr)
	}

	if skillErr != nil {
		s.logger.Warn("skill extraction failed, continuing with role keywords only", zap.Error(skillErr))
	}
	if roleErr != nil {
		s.logger.Warn("role classification failed, continuing with skills only", zap.Error(roleErr))
	}

	profile := &models.CandidateProfile{
		Skills:       deriveSkills(skillPreds, s.minSkillScore),
		RoleKeywords: deriveRoleKeywords(rolePreds),
		RawText:      text,
	}

	s.logger.Info("candidate profile built",
		zap.Int("skills", len(profile.Skills)),
		zap.Int("role_keywords", len(profile.RoleKeywords)),
	)

	return profile, nil
}

// deriveSkills turns skill predictions into a sorted, deduplicated set.
// Sorting makes the profile deterministic for identical prediction sets.
func deriveSkills(preds []models.InferencePrediction, minScore float64) []string {
	seen := make(map[string]bool)
	var skills []string
	for _, p := range preds {
		label := strings.ToLower(strings.TrimSpace(p.Label))
		if label == "" || p.Score < minScore || seen[label] {
			continue
		}
		seen[label] = true
		skills = append(skills, label)
	}
	sort.Strings(skills)
	return skills
}

// deriveRoleKeywords orders role labels by confidence, breaking score ties
// by label so identical predictions always produce the same sequence.
func deriveRoleKeywords(preds []models.InferencePrediction) []string {
	ordered := make([]models.InferencePrediction, len(preds))
	copy(ordered, preds)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Label < ordered[j].Label
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, p := range ordered {
		label := strings.ToLower(strings.TrimSpace(p.Label))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		keywords = append(keywords, label)
	}
	return keywords
}
