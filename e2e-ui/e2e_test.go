//go:build e2e

// Package e2e contains end-to-end tests for the should-i-play web UI.
// tests verify that the page loads, champions search works and predictions are shown.
package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL      = "http://localhost:18090"
	testDBPath   = "/tmp/should-i-play-e2e.db"
	testDataPath = "/tmp/should-i-play-e2e-matches.db"
)

const championsJSON = `{"type":"champion","version":"10.6.1","data":{
"Yasuo":{"id":"Yasuo","key":"157","name":"Yasuo","title":"the Unforgiven"},
"Sett":{"id":"Sett","key":"875","name":"Sett","title":"the Boss"},
"Zed":{"id":"Zed","key":"238","name":"Zed","title":"the Master of Shadows"},
"Annie":{"id":"Annie","key":"1","name":"Annie","title":"the Dark Child"},
"Ahri":{"id":"Ahri","key":"103","name":"Ahri","title":"the Nine-Tailed Fox"}}}`

const matchesData = `{"enemyChampions":[{"name":"Yasuo","key":157},{"name":"Sett","key":875}],"win":true,"_id":"m1"}
{"enemyChampions":[{"name":"Zed","key":238},{"name":"Annie","key":1}],"win":false,"_id":"m2"}
`

var (
	pw        *playwright.Playwright
	browser   playwright.Browser
	serverCmd *exec.Cmd
)

func TestMain(m *testing.M) {
	// clean old test data
	_ = os.Remove(testDBPath)
	if err := os.WriteFile(testDataPath, []byte(matchesData), 0o644); err != nil {
		fmt.Printf("failed to create matches datafile: %v\n", err)
		os.Exit(1)
	}

	// local champions catalog, no access to data dragon needed
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/champion.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(championsJSON))
	}))

	// build test binary from project root
	build := exec.Command("go", "build", "-o", "/tmp/should-i-play-e2e", "./app")
	build.Dir = ".." // run from project root
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	serverCmd = exec.Command("/tmp/should-i-play-e2e",
		"--server.listen=:18090",
		"--db="+testDBPath,
		"--import.file="+testDataPath,
		"--champions.url="+catalog.URL+"/champion.json",
		"--champions.images="+catalog.URL+"/splash",
		"--dbg",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	// wait for server readiness
	if err := waitForServer(baseURL+"/ping", 30*time.Second); err != nil {
		fmt.Printf("server not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// install playwright browsers
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	var err error
	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// launch browser once (reused across all tests via contexts)
	headless := os.Getenv("E2E_HEADLESS") != "false"
	var slowMo float64
	if !headless {
		slowMo = 50 // slow down visible browser for easier observation
	}
	browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	if err != nil {
		fmt.Printf("failed to launch browser: %v\n", err)
		_ = pw.Stop()
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	code := m.Run()

	// cleanup
	_ = browser.Close()
	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	catalog.Close()
	_ = os.Remove(testDBPath)
	_ = os.Remove(testDataPath)

	os.Exit(code)
}

func waitForServer(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url) //nolint:gosec // test url
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

// newPage creates a new browser page in isolated context
func newPage(t *testing.T) playwright.Page {
	t.Helper()
	ctx, err := browser.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)
	_, err = page.Goto(baseURL)
	require.NoError(t, err)
	return page
}

// waitVisible waits for locator to become visible
func waitVisible(t *testing.T, loc playwright.Locator) {
	t.Helper()
	require.NoError(t, loc.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}))
}

// addChampion searches champion by prefix and clicks Add on the card with its name
func addChampion(t *testing.T, page playwright.Page, prefix, name string) {
	t.Helper()
	require.NoError(t, page.Locator("#searchBar").Fill(prefix))
	btn := page.Locator(fmt.Sprintf("#list .card:has-text('%s') button.add", name))
	waitVisible(t, btn)
	require.NoError(t, btn.Click())
}

func selectedCount(t *testing.T, page playwright.Page) int {
	t.Helper()
	count, err := page.Locator("#selectionList img.champion").Count()
	require.NoError(t, err)
	return count
}

func TestIndex_PageLoads(t *testing.T) {
	page := newPage(t)

	title, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "Should I Play?", title)

	waitVisible(t, page.Locator("h1:has-text('Should I Play?')"))
	waitVisible(t, page.Locator("#searchBar"))
	waitVisible(t, page.Locator("#selectionList:has-text('Start by adding champions')"))

	count, err := page.Locator("#askButton").Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no ask button without champions")
}

func TestSearch_ShowsMatchingChampions(t *testing.T) {
	page := newPage(t)

	require.NoError(t, page.Locator("#searchBar").Fill("a"))
	waitVisible(t, page.Locator("#list .card:has-text('Ahri')"))
	waitVisible(t, page.Locator("#list .card:has-text('Annie')"))

	count, err := page.Locator("#list .card").Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	title, err := page.Locator("#list .card:has-text('Annie') p").TextContent()
	require.NoError(t, err)
	assert.Equal(t, "the Dark Child", title)

	require.NoError(t, page.Locator("#searchBar").Fill(""))
	require.NoError(t, page.Locator("#list .card").First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateDetached,
	}))
}

func TestSelection_AddAndRemove(t *testing.T) {
	page := newPage(t)

	addChampion(t, page, "ya", "Yasuo")
	waitVisible(t, page.Locator("#selectionList img.champion"))
	waitVisible(t, page.Locator("#askButton"))
	assert.Equal(t, 1, selectedCount(t, page))

	src, err := page.Locator("#selectionList img.champion").GetAttribute("src")
	require.NoError(t, err)
	assert.Contains(t, src, "/splash/Yasuo_0.jpg")

	require.NoError(t, page.Locator("#selectionList img.champion").Click())
	waitVisible(t, page.Locator("#selectionList:has-text('Start by adding champions')"))
	assert.Equal(t, 0, selectedCount(t, page))
}

func TestSelection_LimitedToFive(t *testing.T) {
	page := newPage(t)

	for range 6 {
		addChampion(t, page, "ze", "Zed")
	}
	assert.Equal(t, 5, selectedCount(t, page))
}

func TestPredict_ShowsOdds(t *testing.T) {
	page := newPage(t)

	addChampion(t, page, "yas", "Yasuo")
	waitVisible(t, page.Locator("#askButton"))
	require.NoError(t, page.Locator("#askButton").Click())

	waitVisible(t, page.Locator("#results"))
	positive, err := page.Locator("#positive").TextContent()
	require.NoError(t, err)
	negative, err := page.Locator("#negative").TextContent()
	require.NoError(t, err)
	assert.Equal(t, "66.67", positive)
	assert.Equal(t, "33.33", negative)

	require.NoError(t, page.Locator("#closeResults").Click())
	require.NoError(t, page.Locator("#results").WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateHidden,
	}))
}
