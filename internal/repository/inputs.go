package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webclinic017/sagetrader-api/internal/models"
)

// RefUID is a foreign key that clients send either as a JSON number or a numeric string.
type RefUID uint64

func (r *RefUID) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*r = 0
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return &ValidationError{Field: "uid", Reason: fmt.Sprintf("%q is not an identifier", raw)}
	}
	*r = RefUID(v)
	return nil
}

func (r *RefUID) Value() uint64 {
	if r == nil {
		return 0
	}
	return uint64(*r)
}

// NamedInput is the payload shape shared by named, shareable resources.
type NamedInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
}

func (in NamedInput) requireName(resource string) (string, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return "", &ValidationError{Field: resource + ".name", Reason: "required"}
	}
	return strings.TrimSpace(*in.Name), nil
}

func (in NamedInput) apply(name, description *string, public *bool) {
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		*name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		*description = *in.Description
	}
	if in.Public != nil {
		*public = *in.Public
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

type UserInput struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`

	// HashedPassword is filled by the account service, never decoded from a request.
	HashedPassword *string `json:"-"`
}

func (in UserInput) Build(uint64) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(derefString(in.Email)))
	if email == "" {
		return models.User{}, &ValidationError{Field: "email", Reason: "required"}
	}
	if in.HashedPassword == nil || *in.HashedPassword == "" {
		return models.User{}, &ValidationError{Field: "password", Reason: "required"}
	}
	return models.User{
		Email:          email,
		FirstName:      derefString(in.FirstName),
		LastName:       derefString(in.LastName),
		HashedPassword: *in.HashedPassword,
		IsActive:       derefBool(in.IsActive, true),
		IsSuperuser:    derefBool(in.IsSuperuser, false),
	}, nil
}

func (in UserInput) Apply(u *models.User) error {
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	if in.HashedPassword != nil && *in.HashedPassword != "" {
		u.HashedPassword = *in.HashedPassword
	}
	return nil
}

// NormalizeInstrumentName is the canonical form used for storage and lookups.
func NormalizeInstrumentName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

type InstrumentInput struct {
	NamedInput
}

func (in InstrumentInput) Build(ownerUID uint64) (models.Instrument, error) {
	name, err := in.requireName("instrument")
	if err != nil {
		return models.Instrument{}, err
	}
	return models.Instrument{
		Name:        NormalizeInstrumentName(name),
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in InstrumentInput) Apply(m *models.Instrument) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	m.Name = NormalizeInstrumentName(m.Name)
	return nil
}

type StrategyInput struct {
	NamedInput
}

func (in StrategyInput) Build(ownerUID uint64) (models.Strategy, error) {
	name, err := in.requireName("strategy")
	if err != nil {
		return models.Strategy{}, err
	}
	return models.Strategy{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in StrategyInput) Apply(m *models.Strategy) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

// StyleInput builds owned styles; an owner of zero yields a system style.
type StyleInput struct {
	NamedInput
}

func (in StyleInput) Build(ownerUID uint64) (models.Style, error) {
	name, err := in.requireName("style")
	if err != nil {
		return models.Style{}, err
	}
	m := models.Style{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
	}
	if ownerUID != 0 {
		m.OwnerUID = &ownerUID
	}
	return m, nil
}

func (in StyleInput) Apply(m *models.Style) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type TradingPlanInput struct {
	NamedInput
}

func (in TradingPlanInput) Build(ownerUID uint64) (models.TradingPlan, error) {
	name, err := in.requireName("trading plan")
	if err != nil {
		return models.TradingPlan{}, err
	}
	return models.TradingPlan{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in TradingPlanInput) Apply(m *models.TradingPlan) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type TaskInput struct {
	NamedInput
}

func (in TaskInput) Build(ownerUID uint64) (models.Task, error) {
	name, err := in.requireName("task")
	if err != nil {
		return models.Task{}, err
	}
	return models.Task{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in TaskInput) Apply(m *models.Task) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type WatchListInput struct {
	NamedInput
}

func (in WatchListInput) Build(ownerUID uint64) (models.WatchList, error) {
	name, err := in.requireName("watchlist")
	if err != nil {
		return models.WatchList{}, err
	}
	return models.WatchList{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in WatchListInput) Apply(m *models.WatchList) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type StudyInput struct {
	NamedInput
}

func (in StudyInput) Build(ownerUID uint64) (models.Study, error) {
	name, err := in.requireName("study")
	if err != nil {
		return models.Study{}, err
	}
	return models.Study{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		OwnerUID:    ownerUID,
	}, nil
}

func (in StudyInput) Apply(m *models.Study) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type AttributeInput struct {
	NamedInput
	StudyUID *RefUID `json:"study_uid"`
}

func (in AttributeInput) Build(uint64) (models.Attribute, error) {
	name, err := in.requireName("attribute")
	if err != nil {
		return models.Attribute{}, err
	}
	if in.StudyUID.Value() == 0 {
		return models.Attribute{}, &ValidationError{Field: "study_uid", Reason: "required"}
	}
	return models.Attribute{
		Name:        name,
		Description: derefString(in.Description),
		Public:      derefBool(in.Public, false),
		StudyUID:    in.StudyUID.Value(),
	}, nil
}

// Apply never moves an attribute to another study.
func (in AttributeInput) Apply(m *models.Attribute) error {
	in.apply(&m.Name, &m.Description, &m.Public)
	return nil
}

type TradeInput struct {
	Date        *time.Time `json:"date"`
	Description *string    `json:"description"`
	Public      *bool      `json:"public"`

	Position *bool            `json:"position"`
	Outcome  *bool            `json:"outcome"`
	Status   *bool            `json:"status"`
	Pips     *int             `json:"pips"`
	RR       *decimal.Decimal `json:"rr"`

	SL         *int  `json:"sl"`
	TP         *int  `json:"tp"`
	TPReached  *bool `json:"tp_reached"`
	TPExceeded *bool `json:"tp_exceeded"`
	FullStop   *bool `json:"full_stop"`

	EntryPrice *decimal.Decimal `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
	SLPrice    *decimal.Decimal `json:"sl_price"`
	TPPrice    *decimal.Decimal `json:"tp_price"`

	ScaledIn           *bool `json:"scaled_in"`
	ScaledOut          *bool `json:"scaled_out"`
	CorrelatedPosition *bool `json:"correlated_position"`

	InstrumentUID *RefUID `json:"instrument_uid"`
	StrategyUID   *RefUID `json:"strategy_uid"`
	StyleUID      *RefUID `json:"style_uid"`
}

func (in TradeInput) Build(ownerUID uint64) (models.Trade, error) {
	if err := requireRefs(
		ref{"instrument_uid", in.InstrumentUID},
		ref{"strategy_uid", in.StrategyUID},
		ref{"style_uid", in.StyleUID},
	); err != nil {
		return models.Trade{}, err
	}
	m := models.Trade{
		Position: true,
		Status:   true,
		OwnerUID: ownerUID,
	}
	if err := in.Apply(&m); err != nil {
		return models.Trade{}, err
	}
	return m, nil
}

func (in TradeInput) Apply(m *models.Trade) error {
	if in.Date != nil {
		d := in.Date.UTC()
		m.Date = &d
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	setBool(&m.Public, in.Public)
	setBool(&m.Position, in.Position)
	setBool(&m.Outcome, in.Outcome)
	setBool(&m.Status, in.Status)
	if in.Pips != nil {
		m.Pips = in.Pips
	}
	if in.RR != nil {
		m.RR = in.RR
	}
	if in.SL != nil {
		m.SL = in.SL
	}
	if in.TP != nil {
		m.TP = in.TP
	}
	setBool(&m.TPReached, in.TPReached)
	setBool(&m.TPExceeded, in.TPExceeded)
	setBool(&m.FullStop, in.FullStop)
	if in.EntryPrice != nil {
		m.EntryPrice = in.EntryPrice
	}
	if in.ExitPrice != nil {
		m.ExitPrice = in.ExitPrice
	}
	if in.SLPrice != nil {
		m.SLPrice = in.SLPrice
	}
	if in.TPPrice != nil {
		m.TPPrice = in.TPPrice
	}
	setBool(&m.ScaledIn, in.ScaledIn)
	setBool(&m.ScaledOut, in.ScaledOut)
	setBool(&m.CorrelatedPosition, in.CorrelatedPosition)
	if v := in.InstrumentUID.Value(); v != 0 {
		m.InstrumentUID = v
	}
	if v := in.StrategyUID.Value(); v != 0 {
		m.StrategyUID = v
	}
	if v := in.StyleUID.Value(); v != 0 {
		m.StyleUID = v
	}
	return nil
}

// AttributeRef is the {uid} object used to link attributes to a study item.
type AttributeRef struct {
	UID RefUID `json:"uid"`
}

type StudyItemInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Public      *bool      `json:"public"`
	Date        *time.Time `json:"date"`

	Position *bool            `json:"position"`
	Outcome  *bool            `json:"outcome"`
	Pips     *int             `json:"pips"`
	RRR      *decimal.Decimal `json:"rrr"`

	StudyUID      *RefUID `json:"study_uid"`
	InstrumentUID *RefUID `json:"instrument_uid"`
	StyleUID      *RefUID `json:"style_uid"`

	// Attributes replaces the whole attribute set when present. Nil leaves it untouched.
	Attributes *[]AttributeRef `json:"attributes"`
}

func (in StudyItemInput) Build(uint64) (models.StudyItem, error) {
	if err := requireRefs(
		ref{"study_uid", in.StudyUID},
		ref{"instrument_uid", in.InstrumentUID},
		ref{"style_uid", in.StyleUID},
	); err != nil {
		return models.StudyItem{}, err
	}
	m := models.StudyItem{
		Position: true,
		StudyUID: in.StudyUID.Value(),
	}
	if err := in.Apply(&m); err != nil {
		return models.StudyItem{}, err
	}
	return m, nil
}

// Apply leaves the study and the attribute set alone; the repository owns both.
func (in StudyItemInput) Apply(m *models.StudyItem) error {
	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	setBool(&m.Public, in.Public)
	if in.Date != nil {
		d := in.Date.UTC()
		m.Date = &d
	}
	setBool(&m.Position, in.Position)
	setBool(&m.Outcome, in.Outcome)
	if in.Pips != nil {
		m.Pips = in.Pips
	}
	if in.RRR != nil {
		m.RRR = in.RRR
	}
	if v := in.InstrumentUID.Value(); v != 0 {
		m.InstrumentUID = v
	}
	if v := in.StyleUID.Value(); v != 0 {
		m.StyleUID = v
	}
	return nil
}

// AttributeUIDs returns the distinct attribute ids in submission order.
func (in StudyItemInput) AttributeUIDs() []uint64 {
	if in.Attributes == nil {
		return nil
	}
	out := make([]uint64, 0, len(*in.Attributes))
	seen := map[uint64]struct{}{}
	for _, ref := range *in.Attributes {
		uid := uint64(ref.UID)
		if uid == 0 {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

type ref struct {
	field string
	uid   *RefUID
}

func requireRefs(refs ...ref) error {
	for _, r := range refs {
		if r.uid.Value() == 0 {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	return nil
}
