package database

import (
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"

	"github.com/nieveai/content-crew/internal/config"
)

// CitationGraph records which sources each generated post cites:
// (:Topic {name})-[:CITES]->(:Source {url}).
type CitationGraph struct {
	Driver neo4j.Driver
}

func NewCitationGraph(cfg config.Neo4jConfig) (*CitationGraph, error) {
	driver, err := neo4j.NewDriver(cfg.Uri, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(); err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", cfg.Uri, err)
	}
	return &CitationGraph{Driver: driver}, nil
}

const citeQuery = `
	MERGE (t:Topic {name: $topic})
	MERGE (s:Source {url: $url})
	MERGE (t)-[r:CITES]->(s)
	ON CREATE SET r.first_run = $runID
	SET r.last_run = $runID`

// RecordCitations links topic to every url in a single write transaction.
func (g *CitationGraph) RecordCitations(runID, topic string, urls []string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" || len(urls) == 0 {
		return nil
	}

	session := g.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		for _, url := range urls {
			result, err := tx.Run(citeQuery, map[string]interface{}{
				"topic": topic,
				"url":   url,
				"runID": runID,
			})
			if err != nil {
				return nil, err
			}
			if err := result.Err(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record citations for %q: %w", topic, err)
	}
	return nil
}

func (g *CitationGraph) Close() error {
	return g.Driver.Close()
}
