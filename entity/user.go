package entity

import (
	"fmt"

	"github.com/samber/lo"
)

type Experience string

const (
	Beginner     Experience = "beginner"
	Intermediate Experience = "intermediate"
	Advanced     Experience = "advanced"
)

type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

type TradingStyle string

const (
	Scalping TradingStyle = "scalping"
	Swing    TradingStyle = "swing"
	Position TradingStyle = "position"
	LongTerm TradingStyle = "long_term"
)

type DetailLevel string

const (
	Brief         DetailLevel = "brief"
	Detailed      DetailLevel = "detailed"
	Comprehensive DetailLevel = "comprehensive"
)

// DefaultRecentCap 是 RecentAnalyses 的默认长度上限
const DefaultRecentCap = 5

type Preferences struct {
	DetailLevel DetailLevel `json:"detailLevel"`
	FocusAreas  []string    `json:"focusAreas"`
}

// PreferencesPatch 是一次偏好的局部更新，nil 字段保持原值
type PreferencesPatch struct {
	DetailLevel *DetailLevel `json:"detailLevel,omitempty"`
	FocusAreas  []string     `json:"focusAreas,omitempty"`
}

// ProfilePatch 是交易画像的局部更新
type ProfilePatch struct {
	Experience    *Experience    `json:"experience,omitempty"`
	RiskTolerance *RiskTolerance `json:"riskTolerance,omitempty"`
	TradingStyle  *TradingStyle  `json:"tradingStyle,omitempty"`
}

type UserContext struct {
	UserID         string        `json:"userId"`
	Experience     Experience    `json:"experience"`
	RiskTolerance  RiskTolerance `json:"riskTolerance"`
	TradingStyle   TradingStyle  `json:"tradingStyle"`
	RecentAnalyses []string      `json:"recentAnalyses"`
	Preferences    Preferences   `json:"preferences"`
}

// NewUserContext 返回会话开始时的默认画像
func NewUserContext(userID string) UserContext {
	return UserContext{
		UserID:         userID,
		Experience:     Intermediate,
		RiskTolerance:  RiskMedium,
		TradingStyle:   Swing,
		RecentAnalyses: []string{},
		Preferences: Preferences{
			DetailLevel: Detailed,
			FocusAreas:  []string{"technical_analysis", "risk_management"},
		},
	}
}

// RecordAnalysis 把最新的分析类型放到队首并截断到 limit
func (u *UserContext) RecordAnalysis(entry string, limit int) {
	if limit <= 0 {
		limit = DefaultRecentCap
	}
	recent := append([]string{entry}, u.RecentAnalyses...)
	if len(recent) > limit {
		recent = recent[:limit]
	}
	u.RecentAnalyses = recent
}

func (u *UserContext) ApplyPreferences(p PreferencesPatch) error {
	if p.DetailLevel != nil {
		if err := validDetailLevel(*p.DetailLevel); err != nil {
			return err
		}
		u.Preferences.DetailLevel = *p.DetailLevel
	}
	if p.FocusAreas != nil {
		u.Preferences.FocusAreas = lo.Uniq(p.FocusAreas)
	}
	return nil
}

func (u *UserContext) ApplyProfile(p ProfilePatch) error {
	if p.Experience != nil {
		switch *p.Experience {
		case Beginner, Intermediate, Advanced:
			u.Experience = *p.Experience
		default:
			return fmt.Errorf("unknown experience %q", *p.Experience)
		}
	}
	if p.RiskTolerance != nil {
		switch *p.RiskTolerance {
		case RiskLow, RiskMedium, RiskHigh:
			u.RiskTolerance = *p.RiskTolerance
		default:
			return fmt.Errorf("unknown risk tolerance %q", *p.RiskTolerance)
		}
	}
	if p.TradingStyle != nil {
		switch *p.TradingStyle {
		case Scalping, Swing, Position, LongTerm:
			u.TradingStyle = *p.TradingStyle
		default:
			return fmt.Errorf("unknown trading style %q", *p.TradingStyle)
		}
	}
	return nil
}

// Clone 返回不共享切片的副本
func (u UserContext) Clone() UserContext {
	u.RecentAnalyses = append([]string{}, u.RecentAnalyses...)
	u.Preferences.FocusAreas = append([]string{}, u.Preferences.FocusAreas...)
	return u
}

func validDetailLevel(d DetailLevel) error {
	switch d {
	case Brief, Detailed, Comprehensive:
		return nil
	}
	return fmt.Errorf("unknown detail level %q", d)
}
