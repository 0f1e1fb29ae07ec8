package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type passInfo struct {
	Pass  int
	Width float64
	note  string
}

// assertLogMatches fuzzy matches a log line. It checks the time format but not the exact time, and
// expects a match on the filename but not the line number.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Level and logger name.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, _ := strings.Cut(expectedParts[3], ":")
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[4], test.ShouldEqual, expectedParts[4])
	if len(actualParts) == 5 {
		return
	}

	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[5]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[5]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("guidance", DEBUG, true, NewWriterAppender(notStdout))

	logger.Info("plan reset")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tINFO\tguidance\tlogging/impl_test.go:1\tplan reset")

	logger.Infof("expanded %d passes", 3)
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tINFO\tguidance\tlogging/impl_test.go:1\texpanded 3 passes")

	logger.Warnw("turn unavailable", "reason", "no hint")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tWARN\tguidance\tlogging/impl_test.go:1\tturn unavailable\t{\"reason\":\"no hint\"}")

	// Unexported fields are dropped from the structured output.
	logger.Debugw("pass", "info", passInfo{Pass: -2, Width: 3, note: "x"})
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tDEBUG\tguidance\tlogging/impl_test.go:1\tpass\t{\"info\":{\"Pass\":-2,\"Width\":3}}")

	logger.Infow("unpaired", "key")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tINFO\tguidance\tlogging/impl_test.go:1\tunpaired\t{\"key\":\"unpaired log key\"}")
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("guidance", WARN, true, NewWriterAppender(notStdout))

	logger.Info("dropped")
	logger.Debug("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.CDebug(EnableDebugMode(context.Background(), ""), "traced")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tDEBUG\tguidance\tlogging/impl_test.go:1\ttraced")

	logger.SetLevel(INFO)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
	logger.Info("kept")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tINFO\tguidance\tlogging/impl_test.go:1\tkept")

	sub := logger.Sublogger("jobs")
	sub.Error("failed")
	assertLogMatches(t, notStdout,
		"2023-10-30T09:12:09.459Z\tERROR\tguidance.jobs\tlogging/impl_test.go:1\tfailed")

	// A sublogger's level is independent of its parent.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	data, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"error"`)
}

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("boundary extracted", "points", 12)
	test.That(t, observed.FilterMessage("boundary extracted").Len(), test.ShouldEqual, 1)
	test.That(t, observed.All()[0].ContextMap()["points"], test.ShouldEqual, int64(12))
}
