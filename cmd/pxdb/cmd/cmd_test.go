package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/pxdb/pkg/config"
	"github.com/ssargent/pxdb/pkg/di"
	"github.com/ssargent/pxdb/pkg/export"
	"github.com/ssargent/pxdb/pkg/logging"
	tt "github.com/ssargent/pxdb/pkg/table/tabletest"
	"github.com/ssargent/pxdb/pkg/value"
)

var crewFields = []tt.Field{
	{Name: "Name", Type: value.Alpha, Size: 10},
	{Name: "Age", Type: value.Long, Size: 4},
	{Name: "Notes", Type: value.MemoBlob, Size: 15},
}

func memo(leader string, length uint32) []byte {
	b := make([]byte, 15)
	copy(b, leader)
	binary.LittleEndian.PutUint32(b[9:], length)
	return b
}

// setupCLI installs default config, a silent logger and a fresh container
func setupCLI(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	logger = logging.Discard()
	SetContainer(di.NewContainer())
}

// writeCrew writes a three record table and returns its path
func writeCrew(t *testing.T) string {
	t.Helper()
	b := tt.New(crewFields...).WithRecords([][]byte{
		tt.Record(tt.Alpha("Ann", 10), tt.Long(30), memo("hi", 2)),
		tt.Record(tt.Alpha("Bob", 10), tt.Null(4), memo("long", 100)),
		tt.Record(tt.Alpha("Cy", 10), tt.Long(41), tt.Null(15)),
	})
	b.TableName = "crew.db"
	path := filepath.Join(t.TempDir(), "crew.db")
	require.NoError(t, b.WriteFile(path))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("explicit path is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pxdb.yaml")
		want := config.DefaultConfig()
		want.Export.NullText = "NULL"
		require.NoError(t, config.SaveConfig(want, path))

		got, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "NULL", got.Export.NullText)
	})
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxdb", "config.yaml")

	var out bytes.Buffer
	require.NoError(t, initConfig(&out, path, false, false))
	assert.Contains(t, out.String(), "Configuration written to "+path)
	assert.NotContains(t, out.String(), "API key")
	assert.True(t, config.ConfigExists(path))

	out.Reset()
	require.NoError(t, initConfig(&out, path, false, true))
	assert.Contains(t, out.String(), "already exists")

	out.Reset()
	require.NoError(t, initConfig(&out, path, true, true))
	assert.Contains(t, out.String(), "Server API key")

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Server.APIKey, 64)
}

func TestWriteInfo(t *testing.T) {
	setupCLI(t)
	tbl, err := openTable(writeCrew(t))
	require.NoError(t, err)
	defer tbl.Close()

	var out bytes.Buffer
	require.NoError(t, writeInfo(&out, tbl, "table"))
	text := out.String()
	assert.Contains(t, text, "Table:")
	assert.Contains(t, text, "crew.db")
	assert.Contains(t, text, "Version:         7.0")
	assert.Contains(t, text, "File type:       unkeyed")
	assert.Contains(t, text, "Records:         3")
	assert.NotContains(t, text, "Blob file")

	out.Reset()
	require.NoError(t, writeInfo(&out, tbl, "json"))
	var info tableInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, 3, info.Records)
	assert.Equal(t, 3, info.Fields)
	assert.Equal(t, uint16(29), info.RecordSize)
	assert.Equal(t, "linked", info.Layout)
}

func TestWriteFields(t *testing.T) {
	setupCLI(t)
	tbl, err := openTable(writeCrew(t))
	require.NoError(t, err)
	defer tbl.Close()

	var out bytes.Buffer
	require.NoError(t, writeFields(&out, tbl, "table"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"#", "NAME", "TYPE", "SIZE", "OFFSET"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2", "Age", "Long", "4", "10"}, strings.Fields(lines[2]))

	out.Reset()
	require.NoError(t, writeFields(&out, tbl, "json"))
	var fields []fieldInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &fields))
	assert.Equal(t, fieldInfo{Name: "Notes", Type: "Memo", Size: 15, Offset: 14}, fields[2])
}

func TestDumpRecords(t *testing.T) {
	setupCLI(t)
	tbl, err := openTable(writeCrew(t))
	require.NoError(t, err)
	defer tbl.Close()

	r := export.NewRenderer(cfg.Export)

	var out bytes.Buffer
	require.NoError(t, dumpRecords(context.Background(), &out, tbl, r, 0))
	text := out.String()
	assert.Contains(t, text, "record 0")
	assert.Contains(t, text, "record 2")
	assert.Contains(t, text, "Notes:  hi")
	assert.Contains(t, text, "<memo 100 bytes, unresolved>")
	assert.Contains(t, text, "Age:    <null>")

	out.Reset()
	require.NoError(t, dumpRecords(context.Background(), &out, tbl, r, 1))
	assert.Contains(t, out.String(), "record 0")
	assert.NotContains(t, out.String(), "record 1")
}

func TestRunExport(t *testing.T) {
	setupCLI(t)
	path := writeCrew(t)
	outPath := filepath.Join(t.TempDir(), "crew.csv")

	var out bytes.Buffer
	err := runExport(context.Background(), &out, path, exportRequest{Format: "csv", Out: outPath})
	require.NoError(t, err)
	assert.Equal(t, "Exported 3 records to "+outPath+"\n", out.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "Name,Age,Notes\nAnn,30,\nBob,,\nCy,41,\n", string(data))

	err = runExport(context.Background(), &out, path, exportRequest{Format: "xml", Out: outPath})
	assert.Error(t, err)
}

func TestTableName(t *testing.T) {
	setupCLI(t)
	tbl, err := openTable(writeCrew(t))
	require.NoError(t, err)
	defer tbl.Close()

	assert.Equal(t, "crew", tableName(tbl.Document, "/x/CREW.DB"))
}

func TestRootCommand(t *testing.T) {
	SetContainer(nil)
	configPath := filepath.Join(t.TempDir(), "pxdb.yaml")
	require.NoError(t, config.SaveConfig(config.DefaultConfig(), configPath))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--config", configPath, "--log-level", "error", "fields", writeCrew(t)})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Notes")
	assert.NotNil(t, container, "setup installs a container when none was injected")
	assert.Equal(t, "error", cfg.Logging.Level)
}
