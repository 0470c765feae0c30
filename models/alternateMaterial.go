package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AlternateMaterial is a configured substitution rule. MaterialOwner is
// either an exact material code or a grade/gram prefix; the rule offers
// AlternateCode at the given priority (lower runs first).
type AlternateMaterial struct {
	ID            int       `gorm:"primary_key" json:"id"`
	SoldTo        string    `gorm:"size:10;index" json:"sold_to"`
	MaterialOwner string    `gorm:"size:35;index;not null" json:"material_owner"`
	AlternateCode string    `gorm:"size:35;not null" json:"alternate_code"`
	Priority      int       `gorm:"default:0" json:"priority"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MaterialDetermination records that a customer is entitled to order a
// specific full material code. Grade/gram-matched alternates must pass this
// check before they are offered to the planning engine.
type MaterialDetermination struct {
	ID           int       `gorm:"primary_key" json:"id"`
	SoldTo       string    `gorm:"size:10;index:idx_matdet,unique" json:"sold_to"`
	MaterialCode string    `gorm:"size:35;index:idx_matdet,unique" json:"material_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// gradeGramWidth is how many leading characters of a material code form the
// grade/gram key (grade + grammage, before the size suffix).
const gradeGramWidth = 10

// GradeGram returns the grade/gram prefix of a material code.
func GradeGram(materialCode string) string {
	if len(materialCode) <= gradeGramWidth {
		return materialCode
	}
	return materialCode[:gradeGramWidth]
}

// AlternateCandidate is a substitution rule resolved for one line, with the
// provenance needed by the entitlement check.
type AlternateCandidate struct {
	Code            string
	Priority        int
	MatchedByPrefix bool
}

// FindAlternateCandidates looks up substitution rules for a material: exact
// code rules first, then grade/gram prefix rules.
func FindAlternateCandidates(ctx context.Context, db *gorm.DB, soldTo string, materialCode string) ([]AlternateCandidate, error) {
	var exact []AlternateMaterial
	if err := db.WithContext(ctx).
		Where("sold_to = ? AND material_owner = ?", soldTo, materialCode).
		Order("priority ASC").
		Find(&exact).Error; err != nil {
		return nil, err
	}

	var byPrefix []AlternateMaterial
	if prefix := GradeGram(materialCode); prefix != materialCode {
		if err := db.WithContext(ctx).
			Where("sold_to = ? AND material_owner = ?", soldTo, prefix).
			Order("priority ASC").
			Find(&byPrefix).Error; err != nil {
			return nil, err
		}
	}

	candidates := make([]AlternateCandidate, 0, len(exact)+len(byPrefix))
	for _, rule := range exact {
		candidates = append(candidates, AlternateCandidate{
			Code:     rule.AlternateCode,
			Priority: rule.Priority,
		})
	}
	for _, rule := range byPrefix {
		candidates = append(candidates, AlternateCandidate{
			Code:            rule.AlternateCode,
			Priority:        rule.Priority,
			MatchedByPrefix: true,
		})
	}
	return candidates, nil
}

// HasMaterialDetermination reports whether the customer may order the code.
func HasMaterialDetermination(ctx context.Context, db *gorm.DB, soldTo string, materialCode string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&MaterialDetermination{}).
		Where("sold_to = ? AND material_code = ?", soldTo, materialCode).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
