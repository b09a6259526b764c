package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/testsupport"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	defaults     []string
	inputPos     int
	selectPos    int
	confirmPos   int
	multiline    int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.defaults = append(s.defaults, cfg.Default)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Multiline(ctx context.Context, cfg InputConfig) (string, error) {
	s.multiline++
	return s.Input(ctx, cfg)
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newFiller(driver Driver) *Filler {
	return New(
		WithDriver(driver),
		WithValidator(validation.New(validation.WithClock(testsupport.Clock()))),
	)
}

func valueText(data model.FormData) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		out[key] = value.Kind().String() + ":" + value.String()
	}
	return out
}

func TestFillRepromptsUntilValid(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs: []string{
			"abc", "Іванов Іван Іванович", // lender_name, first answer too short
			"АМ123456",
			"+380501234567",
			"Петров Петро Петрович",
			"abc", "50000", // loan_amount, first answer not a number
			"",             // interest_rate left blank
			"2026-12-31",
			"Автомобіль Toyota",
		},
		selectIdx: []int{1},
		confirm:   []bool{true},
	}

	data, err := newFiller(driver).Fill(context.Background(), testsupport.LoanTemplate(), nil)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}

	want := map[string]string{
		"lender_name":            "string:Іванов Іван Іванович",
		"lender_passport":        "string:АМ123456",
		"lender_phone":           "string:+380501234567",
		"borrower_name":          "string:Петров Петро Петрович",
		"loan_amount":            "number:50000",
		"return_date":            "string:2026-12-31",
		"payment_schedule":       "string:monthly",
		"collateral_required":    "boolean:true",
		"collateral_description": "string:Автомобіль Toyota",
	}
	if diff := cmp.Diff(want, valueText(data)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{
		"Field 'ПІБ позикодавця' must be at least 5 characters",
		"Field 'Сума позики' must be a valid number",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if driver.multiline != 1 {
		t.Fatalf("expected the textarea field to use a multi-line prompt, got %d", driver.multiline)
	}
}

func TestFillSkipsInactiveConditionalFields(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs: []string{
			"Іванов Іван Іванович",
			"АМ123456",
			"+380501234567",
			"Петров Петро Петрович",
			"50000",
			"12.5",
			"2026-12-31",
		},
		selectIdx: []int{0},
		confirm:   []bool{false},
	}

	data, err := newFiller(driver).Fill(context.Background(), testsupport.LoanTemplate(), nil)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if data.Has("collateral_description") {
		t.Fatalf("collateral_description should not be asked when collateral is declined")
	}
	if driver.inputPos != len(driver.inputs) {
		t.Fatalf("expected every scripted input to be consumed, used %d of %d", driver.inputPos, len(driver.inputs))
	}
	if got, _ := data.Get("payment_schedule"); got.String() != "full" {
		t.Fatalf("expected option value to be stored, got %q", got)
	}
}

func TestFillOffersPrefillDefaults(t *testing.T) {
	t.Parallel()

	tpl := model.ContractTemplate{
		ID: "memo",
		Fields: []model.FieldSchema{
			{ID: "name", Type: model.FieldTypeText, Required: true},
			{ID: "amount", Type: model.FieldTypeNumber, Required: true},
		},
	}
	driver := &stubDriver{inputs: []string{"Anna", "10"}}
	prefill := model.FormData{"name": model.String("Anna"), "amount": model.Number(7)}

	if _, err := newFiller(driver).Fill(context.Background(), tpl, prefill); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if diff := cmp.Diff([]string{"Anna", "7"}, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFillPropagatesAbort(t *testing.T) {
	t.Parallel()

	driver := abortingDriver{}
	_, err := newFiller(driver).Fill(context.Background(), testsupport.LoanTemplate(), nil)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newFiller(&stubDriver{}).Fill(ctx, testsupport.LoanTemplate(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

type abortingDriver struct{}

func (abortingDriver) Input(context.Context, InputConfig) (string, error)     { return "", ErrAborted }
func (abortingDriver) Multiline(context.Context, InputConfig) (string, error) { return "", ErrAborted }
func (abortingDriver) Confirm(context.Context, ConfirmConfig) (bool, error)   { return false, ErrAborted }
func (abortingDriver) Select(context.Context, SelectConfig) (int, error)      { return 0, ErrAborted }
func (abortingDriver) Info(context.Context, string) error                     { return nil }
