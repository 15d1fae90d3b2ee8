package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/freezethaw-cli/internal/dataset"
	"github.com/sells-group/freezethaw-cli/internal/lookup"
	"github.com/sells-group/freezethaw-cli/internal/model"
)

func writeSeason(t *testing.T, dir, season string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, c := range rowData {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(filepath.Join(dir, dataset.FileName(season))))
}

// seedDataDir writes a two-season fixture and returns its directory.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	header := []string{"State", "County", "Latitude", "Longitude", "Total_Freeze_Thaw_Cycles", "Damaging_Freeze_Thaw_Cycles"}
	writeSeason(t, dir, "2023-2024", [][]string{
		header,
		{"Utah", "Salt Lake", "40.76", "-111.89", "30", "12"},
	})
	writeSeason(t, dir, "2024-2025", [][]string{
		header,
		{"Colorado", "Boulder", "40.0", "-105.27", "10", "3"},
		{"Colorado", "Denver", "39.74", "-104.99", "8", "9"},
		{"Utah", "Salt Lake", "40.76", "-111.89", "28", "10"},
	})
	return dir
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command in an empty working directory and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	work := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("FREEZETHAW_LOG_LEVEL", "error")

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"seasons", "summary", "query", "export", "fetch", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "freezethaw", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("data-dir"))
}

func TestQueryCommand_Flags(t *testing.T) {
	for _, name := range []string{"state", "lat", "lon", "season", "max-km", "format"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), "query should have --%s flag", name)
	}
	assert.Equal(t, "text", queryCmd.Flags().Lookup("format").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSeasonsCommand(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "seasons", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "2023-2024\n2024-2025\n", out)
}

func TestSeasonsCommand_DataDirFromEnv(t *testing.T) {
	dir := seedDataDir(t)
	t.Setenv("FREEZETHAW_DATA_DIR", dir)

	out, err := execute(t, "seasons")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-2025")
}

func TestSeasonsCommand_Empty(t *testing.T) {
	out, err := execute(t, "seasons", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSummaryCommand(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "summary", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Season:   2024-2025")
	assert.Contains(t, out, "Records:  3")
	assert.Contains(t, out, "States:   2")
	assert.Contains(t, out, "Counties: 3")

	out, err = execute(t, "summary", "--data-dir", dir, "--season", "2023-2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Records:  1")
}

func TestSummaryCommand_MissingSeason(t *testing.T) {
	_, err := execute(t, "summary", "--data-dir", seedDataDir(t), "--season", "1999-2000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1999-2000")
}

func TestQueryCommand_Text(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "query", "--data-dir", dir, "--state", "colorado", "--lat", "40.0", "--lon", "-105.3")
	require.NoError(t, err)
	assert.Contains(t, out, "Nearest monitoring station for season 2024-2025")
	assert.Contains(t, out, "Boulder")
	assert.Contains(t, out, "2.56 km")
	assert.Contains(t, out, "30.0% of freeze-thaw cycles")
}

func TestQueryCommand_RequiredFlags(t *testing.T) {
	_, err := execute(t, "query", "--data-dir", seedDataDir(t), "--state", "Colorado")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestQueryCommand_InvalidRequest(t *testing.T) {
	_, err := execute(t, "query", "--data-dir", seedDataDir(t), "--state", "Colorado", "--lat", "95", "--lon", "-105")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude must be between -90 and 90")
}

func TestQueryCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, "query", "--data-dir", seedDataDir(t), "--state", "Colorado", "--lat", "40", "--lon", "-105", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestQueryCommand_JSON(t *testing.T) {
	out, err := execute(t, "query", "--data-dir", seedDataDir(t),
		"--state", "Utah", "--lat", "40.7", "--lon", "-111.9", "--season", "2023-2024", "--format", "json")
	require.NoError(t, err)

	var resp lookup.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, lookup.StatusFound, resp.Status)
	assert.Equal(t, "2023-2024", resp.Season)
	assert.Equal(t, "Salt Lake", resp.Match.Record.County)
	assert.InDelta(t, 40.0, resp.DamagingShare, 1e-9)
}

func TestQueryCommand_YAML(t *testing.T) {
	out, err := execute(t, "query", "--data-dir", seedDataDir(t),
		"--state", "Iowa", "--lat", "41.6", "--lon", "-93.6", "--format", "yaml")
	require.NoError(t, err)

	var resp lookup.Response
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, lookup.StatusNoState, resp.Status)
	assert.Equal(t, []string{"Colorado", "Utah"}, resp.AvailableStates)
}

func TestQueryCommand_GeoJSON(t *testing.T) {
	dir := seedDataDir(t)

	out, err := execute(t, "query", "--data-dir", dir, "--state", "Colorado", "--lat", "40", "--lon", "-105.3", "--format", "geojson")
	require.NoError(t, err)
	assert.Contains(t, out, `"type":"Feature"`)
	assert.Contains(t, out, `"county":"Boulder"`)

	_, err = execute(t, "query", "--data-dir", dir, "--state", "Colorado", "--lat", "0", "--lon", "0", "--format", "geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no station found")
}

func TestExportCommand(t *testing.T) {
	dir := seedDataDir(t)
	outPath := filepath.Join(t.TempDir(), "stations.parquet")

	out, err := execute(t, "export", "--data-dir", dir, "--season", "2024-2025", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 records for season 2024-2025")

	rows, err := parquet.ReadFile[model.StationRecord](outPath)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Boulder", rows[0].County)
	assert.Equal(t, 8.0, rows[1].DamagingCycles)
}

func TestExportCommand_NoData(t *testing.T) {
	_, err := execute(t, "export", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latest")
}

func TestServeCommand_InvalidPort(t *testing.T) {
	t.Setenv("FREEZETHAW_SERVER_PORT", "-1")

	_, err := execute(t, "serve", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir(seedDataDir(t))))
	defer srv.Close()
	target := t.TempDir()

	out, err := execute(t, "fetch", "--data-dir", target, "--url", srv.URL+"/", "--season", "2023-2024,2024-2025")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 records)")
	assert.Contains(t, out, "(3 records)")
	assert.FileExists(t, filepath.Join(target, dataset.FileName("2023-2024")))
	assert.FileExists(t, filepath.Join(target, dataset.FileName("2024-2025")))

	out, err = execute(t, "seasons", "--data-dir", target)
	require.NoError(t, err)
	assert.Equal(t, "2023-2024\n2024-2025\n", out)
}

func TestFetchCommand_RejectsUnusableWorkbook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a workbook"))
	}))
	defer srv.Close()
	target := t.TempDir()

	_, err := execute(t, "fetch", "--data-dir", target, "--url", srv.URL, "--season", "2024-2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a usable workbook")

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchCommand_Validation(t *testing.T) {
	_, err := execute(t, "fetch", "--data-dir", t.TempDir(), "--season", "2024-2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.source_url is required")

	_, err = execute(t, "fetch", "--data-dir", t.TempDir(), "--url", "http://127.0.0.1:1", "--season", "2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must look like YYYY-YYYY")
}
