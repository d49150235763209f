package session

import (
	"context"

	"github.com/jonathan/resume-enhancer/internal/schema"
	"go.uber.org/zap"
)

// acquire claims the in-flight token for a new enhancement. Only one
// enhancement may run at a time in a session: whole-document and
// entry-level operations mutually exclude each other.
func (s *Session) acquire(token *opToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusEditing {
		return &InvalidStateError{Op: token.String(), Status: s.status}
	}
	if s.inflight != nil {
		return &OperationInFlightError{Current: s.inflight.String()}
	}
	token.gen = s.generation
	s.inflight = token
	return nil
}

// release clears the in-flight token, but only when it is still the one
// held: a Reset may have already cleared it and admitted a new operation,
// whose token must not be wiped by a stale release.
func (s *Session) release(token *opToken) {
	s.mu.Lock()
	if s.inflight == token {
		s.inflight = nil
	}
	s.mu.Unlock()
}

// EnhanceResume rewrites the whole document. The held document is replaced
// atomically on success and left untouched on failure.
func (s *Session) EnhanceResume(ctx context.Context) error {
	token := &opToken{scope: "document"}
	if err := s.acquire(token); err != nil {
		return err
	}
	defer s.release(token)

	s.mu.Lock()
	snapshot := s.resume.Clone()
	s.mu.Unlock()

	enhanced, err := s.enhancer.EnhanceResume(ctx, snapshot)
	if err != nil {
		s.log.Warn("document enhancement failed", zap.Error(err))
		s.notify(Notice{Title: "Enhancement Failed", Description: "Could not enhance the resume. Please try again.", Error: true})
		return err
	}

	s.mu.Lock()
	accepted := s.status == StatusEditing && s.generation == token.gen
	if accepted {
		s.resume = enhanced
	}
	s.mu.Unlock()

	if accepted {
		s.notify(Notice{Title: "Resume Enhanced", Description: "AI has improved your resume content."})
	}
	return nil
}

// EnhanceEntry rewrites the experience entry at index i. Only that entry
// is replaced, and only on success.
func (s *Session) EnhanceEntry(ctx context.Context, i int) error {
	token := &opToken{scope: "entry", entry: i}
	if err := s.acquire(token); err != nil {
		return err
	}
	defer s.release(token)

	s.mu.Lock()
	if i < 0 || i >= len(s.resume.Experience) {
		length := len(s.resume.Experience)
		s.mu.Unlock()
		return &IndexError{Section: "experience", Index: i, Length: length}
	}
	snapshot := s.resume.Experience[i]
	s.mu.Unlock()

	enhanced, err := s.enhancer.EnhanceExperience(ctx, snapshot)
	if err != nil {
		s.log.Warn("entry enhancement failed", zap.Int("index", i), zap.Error(err))
		s.notify(Notice{Title: "Enhancement Failed", Description: "Could not enhance this experience. Please try again.", Error: true})
		return err
	}

	s.mu.Lock()
	if s.status == StatusEditing && s.generation == token.gen && i < len(s.resume.Experience) {
		s.resume.Experience[i] = enhanced
	}
	s.mu.Unlock()
	return nil
}

// EnhanceSection rewrites one free-text block, keyed by a section label
// that only biases tone. The result is returned rather than spliced: the
// caller decides which field it belongs to.
func (s *Session) EnhanceSection(ctx context.Context, section, text string) (string, error) {
	token := &opToken{scope: "section"}
	if err := s.acquire(token); err != nil {
		return "", err
	}
	defer s.release(token)

	enhanced, err := s.enhancer.EnhanceSection(ctx, section, text)
	if err != nil {
		s.log.Warn("section enhancement failed", zap.String("section", section), zap.Error(err))
		s.notify(Notice{Title: "Enhancement Failed", Description: "Could not enhance this section. Please try again.", Error: true})
		return "", err
	}
	return enhanced, nil
}

// The edit operations below mutate the held document in place. They are
// only legal while editing; field identity within a sequence is positional.

// SetContact updates the required top-level fields.
func (s *Session) SetContact(name, email, phone string) error {
	return s.edit(func(r *schema.Resume) error {
		r.Name, r.Email, r.Phone = name, email, phone
		return nil
	})
}

// SetSkills replaces the skills list, filtering out empty strings.
func (s *Session) SetSkills(skills []string) error {
	return s.edit(func(r *schema.Resume) error {
		r.Skills = append([]string{}, skills...)
		r.Normalize()
		return nil
	})
}

// UpdateExperience replaces the experience entry at index i.
func (s *Session) UpdateExperience(i int, entry schema.ExperienceEntry) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Experience) {
			return &IndexError{Section: "experience", Index: i, Length: len(r.Experience)}
		}
		r.Experience[i] = entry
		return nil
	})
}

// AppendExperience appends an experience entry.
func (s *Session) AppendExperience(entry schema.ExperienceEntry) error {
	return s.edit(func(r *schema.Resume) error {
		r.Experience = append(r.Experience, entry)
		return nil
	})
}

// RemoveExperience removes the experience entry at index i.
func (s *Session) RemoveExperience(i int) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Experience) {
			return &IndexError{Section: "experience", Index: i, Length: len(r.Experience)}
		}
		r.Experience = append(r.Experience[:i], r.Experience[i+1:]...)
		return nil
	})
}

// UpdateEducation replaces the education entry at index i.
func (s *Session) UpdateEducation(i int, entry schema.EducationEntry) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Education) {
			return &IndexError{Section: "education", Index: i, Length: len(r.Education)}
		}
		r.Education[i] = entry
		return nil
	})
}

// AppendEducation appends an education entry.
func (s *Session) AppendEducation(entry schema.EducationEntry) error {
	return s.edit(func(r *schema.Resume) error {
		r.Education = append(r.Education, entry)
		return nil
	})
}

// RemoveEducation removes the education entry at index i.
func (s *Session) RemoveEducation(i int) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Education) {
			return &IndexError{Section: "education", Index: i, Length: len(r.Education)}
		}
		r.Education = append(r.Education[:i], r.Education[i+1:]...)
		return nil
	})
}

// UpdateProject replaces the project entry at index i.
func (s *Session) UpdateProject(i int, entry schema.ProjectEntry) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Projects) {
			return &IndexError{Section: "projects", Index: i, Length: len(r.Projects)}
		}
		r.Projects[i] = entry
		return nil
	})
}

// AppendProject appends a project entry.
func (s *Session) AppendProject(entry schema.ProjectEntry) error {
	return s.edit(func(r *schema.Resume) error {
		r.Projects = append(r.Projects, entry)
		return nil
	})
}

// RemoveProject removes the project entry at index i.
func (s *Session) RemoveProject(i int) error {
	return s.edit(func(r *schema.Resume) error {
		if i < 0 || i >= len(r.Projects) {
			return &IndexError{Section: "projects", Index: i, Length: len(r.Projects)}
		}
		r.Projects = append(r.Projects[:i], r.Projects[i+1:]...)
		return nil
	})
}

func (s *Session) edit(apply func(*schema.Resume) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusEditing {
		return &InvalidStateError{Op: "edit the document", Status: s.status}
	}
	return apply(s.resume)
}
