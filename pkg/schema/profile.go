package schema

import "fmt"

// ProfileKey names one intake answer.
type ProfileKey string

const (
	ProfileWork         ProfileKey = "work"
	ProfileStruggles    ProfileKey = "struggles"
	ProfileAchievements ProfileKey = "achievements"
	ProfileLikes        ProfileKey = "likes"
	ProfileDislikes     ProfileKey = "dislikes"
)

// ProfileKeys is the fixed order in which intake answers are collected.
var ProfileKeys = []ProfileKey{
	ProfileWork,
	ProfileStruggles,
	ProfileAchievements,
	ProfileLikes,
	ProfileDislikes,
}

// IntakeProfile holds the user's answers to the scripted interview.
type IntakeProfile struct {
	Work         string `json:"work" yaml:"work"`
	Struggles    string `json:"struggles" yaml:"struggles"`
	Achievements string `json:"achievements" yaml:"achievements"`
	Likes        string `json:"likes" yaml:"likes"`
	Dislikes     string `json:"dislikes" yaml:"dislikes"`
}

// Get returns the answer stored under key.
func (p *IntakeProfile) Get(key ProfileKey) string {
	switch key {
	case ProfileWork:
		return p.Work
	case ProfileStruggles:
		return p.Struggles
	case ProfileAchievements:
		return p.Achievements
	case ProfileLikes:
		return p.Likes
	case ProfileDislikes:
		return p.Dislikes
	}
	return ""
}

// Set stores an answer. Each key may only be written once.
func (p *IntakeProfile) Set(key ProfileKey, value string) error {
	var field *string
	switch key {
	case ProfileWork:
		field = &p.Work
	case ProfileStruggles:
		field = &p.Struggles
	case ProfileAchievements:
		field = &p.Achievements
	case ProfileLikes:
		field = &p.Likes
	case ProfileDislikes:
		field = &p.Dislikes
	default:
		return fmt.Errorf("unknown profile key: %s", key)
	}
	if *field != "" {
		return fmt.Errorf("profile key %s already answered", key)
	}
	*field = value
	return nil
}

// Complete reports whether every key has an answer.
func (p *IntakeProfile) Complete() bool {
	for _, key := range ProfileKeys {
		if p.Get(key) == "" {
			return false
		}
	}
	return true
}
