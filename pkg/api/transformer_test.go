package api

import (
	"testing"
	"time"
)

func resolvePredicate(t *testing.T, typ FieldType) Predicate {
	t.Helper()

	tr, err := DefaultTransformer(typ)
	if err != nil {
		t.Fatalf("DefaultTransformer(%s) failed: %v", typ, err)
	}
	p, ok := tr.(Predicate)
	if !ok {
		t.Fatalf("default for %s is not a Predicate: %T", typ, tr)
	}
	return p
}

func TestDefaultTransformer_UnknownType(t *testing.T) {
	if _, err := DefaultTransformer(FieldType("uuid")); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestTextPredicate(t *testing.T) {
	p := resolvePredicate(t, TypeText)

	v, err := p.Fn(&Message{Text: "hello"})
	if err != nil || v != "hello" {
		t.Fatalf("text not accepted: %v, %v", v, err)
	}

	v, err = p.Fn(&Message{})
	if err != nil || v != nil {
		t.Fatalf("textless message should not match: %v, %v", v, err)
	}
}

func TestIntPredicate(t *testing.T) {
	p := resolvePredicate(t, TypeInt)

	v, err := p.Fn(&Message{Text: "42"})
	if err != nil || v != int64(42) {
		t.Fatalf("int not parsed: %v, %v", v, err)
	}

	if _, err := p.Fn(&Message{Text: "forty-two"}); err == nil {
		t.Fatalf("expected parse error for non-numeric text")
	}
}

func TestFloatPredicate(t *testing.T) {
	p := resolvePredicate(t, TypeFloat)

	v, err := p.Fn(&Message{Text: "2.5"})
	if err != nil || v != 2.5 {
		t.Fatalf("float not parsed: %v, %v", v, err)
	}
}

func TestDatePredicates(t *testing.T) {
	p := resolvePredicate(t, TypeDate)
	v, err := p.Fn(&Message{Text: "24.12.2025"})
	if err != nil {
		t.Fatalf("date not parsed: %v", err)
	}
	if d := v.(time.Time); d.Day() != 24 || d.Month() != time.December || d.Year() != 2025 {
		t.Fatalf("wrong date: %v", d)
	}
	if _, err := p.Fn(&Message{Text: "2025-12-24"}); err == nil {
		t.Fatalf("ISO layout should not parse")
	}

	p = resolvePredicate(t, TypeDateTime)
	v, err = p.Fn(&Message{Text: "24.12.2025 18:30"})
	if err != nil {
		t.Fatalf("datetime not parsed: %v", err)
	}
	if d := v.(time.Time); d.Hour() != 18 || d.Minute() != 30 {
		t.Fatalf("wrong datetime: %v", d)
	}

	p = resolvePredicate(t, TypeTimeOfDay)
	v, err = p.Fn(&Message{Text: "07:45"})
	if err != nil {
		t.Fatalf("time of day not parsed: %v", err)
	}
	if d := v.(time.Time); d.Hour() != 7 || d.Minute() != 45 {
		t.Fatalf("wrong time of day: %v", d)
	}
}

func TestPhotoPredicate_PicksLargestSize(t *testing.T) {
	p := resolvePredicate(t, TypePhoto)

	msg := &Message{Photos: []PhotoSize{
		{FileID: "small", Width: 90, Height: 51},
		{FileID: "medium", Width: 320, Height: 180},
		{FileID: "large", Width: 1280, Height: 720},
	}}
	v, err := p.Fn(msg)
	if err != nil {
		t.Fatalf("photo not accepted: %v", err)
	}
	if v.(PhotoSize).FileID != "large" {
		t.Fatalf("expected the largest size, got %v", v)
	}

	v, err = p.Fn(&Message{Text: "not a photo"})
	if err != nil || v != nil {
		t.Fatalf("photoless message should not match: %v, %v", v, err)
	}
}

func TestDocumentPredicate(t *testing.T) {
	p := resolvePredicate(t, TypeDocument)

	doc := &Document{FileID: "d", FileName: "cv.pdf", MimeType: "application/pdf"}
	v, err := p.Fn(&Message{Document: doc})
	if err != nil {
		t.Fatalf("document not accepted: %v", err)
	}
	if v.(Document).FileName != "cv.pdf" {
		t.Fatalf("unexpected document: %v", v)
	}

	v, err = p.Fn(&Message{Text: "nope"})
	if err != nil || v != nil {
		t.Fatalf("documentless message should not match: %v, %v", v, err)
	}
}

func TestMessagePredicate_AcceptsEverything(t *testing.T) {
	p := resolvePredicate(t, TypeMessage)

	v, err := p.Fn(&Message{ChatID: 7})
	if err != nil {
		t.Fatalf("message not accepted: %v", err)
	}
	if v.(Message).ChatID != 7 {
		t.Fatalf("unexpected message: %v", v)
	}
}
