//go:build integration_test || all_tests

package integration_testing

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/VietDinh95/Notes/internal"
	"github.com/VietDinh95/Notes/internal/notes"
	"github.com/VietDinh95/Notes/internal/surreal"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/surrealdb/surrealdb.go"
)

const (
	serverPort = 9000
	serverHost = "localhost"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	dockerPool *dockertest.Pool
	server     *internal.Server
	remoteRepo *notes.SurrealRepo
	teardown   []func()
}

func newSuite() *Suite {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	surrealPort, err := suite.surrealSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup surrealdb: %s", err)
	}

	surrealClient, err := suite.surrealClientSetup(surrealPort)
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to connect to surrealdb: %s", err)
	}
	suite.remoteRepo = notes.NewSurrealRepo(surrealClient)

	sqlitePath := filepath.Join(os.TempDir(), fmt.Sprintf("notes-e2e-%d.db", time.Now().UnixNano()))
	localRepo, err := notes.NewSqliteRepo(sqlitePath)
	if err != nil {
		suite.cleanup()
		log.Fatalf("open local notes store: %s", err)
	}
	suite.teardown = append(suite.teardown, func() {
		os.Remove(sqlitePath)
	})

	switchboard := notes.NewSwitchboard(
		localRepo,
		func() (notes.Repo, error) {
			return notes.NewSqliteRepo(sqlitePath)
		},
		suite.remoteRepo,
	)

	suite.server = internal.NewServer(switchboard)
	suite.server.Serve(serverHost, serverPort)

	return suite
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.remoteRepo != nil {
		s.remoteRepo.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

func (s *Suite) surrealSetup() (string, error) {
	surrealResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "surrealdb/surrealdb",
		Name:       "surrealdb-notes-test",
		Tag:        "v1.0.0",
		Cmd:        []string{"start", "--user", "root", "--pass", "root", "memory"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run surrealdb: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		surrealResource.Close()
	})

	return surrealResource.GetPort("8000/tcp"), nil
}

func (s *Suite) surrealClientSetup(port string) (*surreal.NotesSurrealClient, error) {
	url := fmt.Sprintf("ws://localhost:%s/rpc", port)

	var db *surrealdb.DB
	// the container needs a moment before it accepts connections
	err := s.dockerPool.Retry(func() (err error) {
		db, err = surrealdb.New(url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %s", url, err)
	}

	client, err := surreal.NewNotesSurrealClient(db, "notes_e2e", "notes", "note")
	if err != nil {
		return nil, fmt.Errorf("bind client: %s", err)
	}
	if err := client.Signin("root", "root"); err != nil {
		return nil, fmt.Errorf("signin: %s", err)
	}
	return client, nil
}
