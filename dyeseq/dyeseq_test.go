package dyeseq

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLabeledString(t *testing.T) {
	seq, err := Parse("0.1.")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []int{0, Unlabeled, 1, Unlabeled}
	if diff := cmp.Diff(want, seq.Positions); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}
	if got := seq.String(); got != "0.1." {
		t.Errorf("String() = %q, want %q", got, "0.1.")
	}
}

func TestParseInvalidLabel(t *testing.T) {
	if _, err := Parse("0x1"); err == nil {
		t.Fatal("expected error for invalid label character")
	}
}

func TestCounts(t *testing.T) {
	seq, _ := Parse("0.1.1")
	got := seq.Counts(2)
	want := []uint{1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Counts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListRoundTrip(t *testing.T) {
	var sb strings.Builder
	records := []Record{
		{Seq: DyeSeq{Positions: []int{0, Unlabeled}}, SourceCount: 3},
		{Seq: DyeSeq{Positions: []int{1, 1, Unlabeled}}, SourceCount: 7},
	}
	if err := WriteList(&sb, 2, records); err != nil {
		t.Fatalf("WriteList: %v", err)
	}

	got, numChannels, err := ParseList(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if numChannels != 2 {
		t.Errorf("numChannels = %d, want 2", numChannels)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i].SourceCount != records[i].SourceCount {
			t.Errorf("record %d: SourceCount = %d, want %d", i, got[i].SourceCount, records[i].SourceCount)
		}
		if diff := cmp.Diff(records[i].Seq.Positions, got[i].Seq.Positions); diff != "" {
			t.Errorf("record %d: Positions mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestParseListRejectsMismatchedLength(t *testing.T) {
	input := "1\n1\n3 1 0.\n"
	if _, _, err := ParseList(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for labeled string length mismatch")
	}
}
