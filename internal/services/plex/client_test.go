package plex

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestXMLParsing(t *testing.T) {
	// Sample library section listing
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="2" machineIdentifier="abc123">
  <Directory key="1" title="Anime Series" type="show"/>
  <Directory key="2" title="Anime Movies" type="movie"/>
</MediaContainer>`

	var container MediaContainer
	if err := xml.Unmarshal([]byte(xmlData), &container); err != nil {
		t.Fatalf("Failed to parse XML: %v", err)
	}

	if container.MachineIdentifier != "abc123" {
		t.Errorf("Expected machine identifier 'abc123', got '%s'", container.MachineIdentifier)
	}
	if len(container.Directories) != 2 {
		t.Fatalf("Expected 2 directories, got %d", len(container.Directories))
	}
	if container.Directories[0].Key != "1" || container.Directories[0].Title != "Anime Series" {
		t.Errorf("Section attributes mismatch: %+v", container.Directories[0])
	}

	// Episode leaves listing
	leavesData := `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="2">
  <Video ratingKey="101" title="To You, in 2000 Years" type="episode" parentIndex="1" index="1"/>
  <Video ratingKey="102" title="That Day" type="episode" parentIndex="1" index="2"/>
</MediaContainer>`

	var leaves MediaContainer
	if err := xml.Unmarshal([]byte(leavesData), &leaves); err != nil {
		t.Fatalf("Failed to parse XML: %v", err)
	}
	if len(leaves.Videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(leaves.Videos))
	}
	if leaves.Videos[1].ParentIndex != 1 || leaves.Videos[1].Index != 2 {
		t.Errorf("Episode numbering mismatch: %+v", leaves.Videos[1])
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	logger := testLogger()

	if _, err := NewClient("not a url", "token", logger); err == nil {
		t.Error("expected error for malformed URL")
	}
	if _, err := NewClient("/just/a/path", "token", logger); err == nil {
		t.Error("expected error for URL without scheme and host")
	}
	if _, err := NewClient("http://plex:32400", "", logger); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewClient("http://plex:32400", "token", logger); err != nil {
		t.Errorf("expected valid URL to be accepted, got: %v", err)
	}
}

func TestConnectAndEpisodeLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/xml")
		switch r.URL.Path {
		case "/":
			io.WriteString(w, `<MediaContainer machineIdentifier="srv1" size="0"/>`)
		case "/library/metadata/42/allLeaves":
			io.WriteString(w, `<MediaContainer size="2">
  <Video ratingKey="101" title="Episode One" type="episode" parentIndex="1" index="1"/>
  <Video ratingKey="102" title="Episode Two" type="episode" parentIndex="1" index="2"/>
</MediaContainer>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if client.machineID != "srv1" {
		t.Errorf("expected machine id 'srv1', got %q", client.machineID)
	}

	episode, err := client.Episode(ctx, "42", 1, 2)
	if err != nil {
		t.Fatalf("Episode lookup failed: %v", err)
	}
	if episode.RatingKey != "102" || episode.Title != "Episode Two" {
		t.Errorf("wrong episode resolved: %+v", episode)
	}

	if _, err := client.Episode(ctx, "42", 2, 1); err == nil {
		t.Error("expected not-found error for missing episode")
	}
}

func TestMetadataURI(t *testing.T) {
	client, err := NewClient("http://plex:32400", "token", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.machineID = "srv1"

	uri := client.metadataURI(Item{RatingKey: "55"})
	want := "server://srv1/com.plexapp.plugins.library/library/metadata/55"
	if uri != want {
		t.Errorf("metadataURI = %q, want %q", uri, want)
	}
}
