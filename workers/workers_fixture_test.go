package workers_test

import (
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/filexfer"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/storage"
	"github.com/APTrust/ingest/util/testutil"
	"github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
	"testing"
)

// commitFixture is a complete ingest stack: local backend, embedded
// archive, a fake id service and a fake Drupal catalog.
type commitFixture struct {
	context  *context.Context
	backend  *testutil.CountingBackend
	idServer *testutil.UniqueIdServer
	drupal   *testutil.DrupalServer
	journal  *storage.BoltDB
	root     string
	cleanup  func()
}

func newCommitFixture(t *testing.T, drupalUsers ...string) *commitFixture {
	root, removeRoot, err := testutil.TestRoot("workers_test")
	require.Nil(t, err)
	fixture := &commitFixture{
		idServer: testutil.NewUniqueIdServer(5000),
		drupal:   testutil.NewDrupalServer(drupalUsers...),
		root:     root,
	}
	config := testutil.NewTestConfig(root)
	config.UniqueId.URL = fixture.idServer.URL
	config.Metadata = models.MetadataConfig{
		Type:                constants.MetadataDrupalJSONAPI,
		DrupalURL:           fixture.drupal.JsonApiURL(),
		DrupalContentType:   "data_upload",
		DrupalContentAuthor: "ingest",
	}
	fixture.context, err = context.NewContext(config)
	require.Nil(t, err)
	fixture.backend = testutil.NewCountingBackend(fixture.context.Backend)
	fixture.context.Backend = fixture.backend
	fixture.journal, err = storage.NewBoltDB(config.JournalPath)
	require.Nil(t, err)
	fixture.cleanup = func() {
		fixture.journal.Close()
		fixture.context.Close()
		fixture.idServer.Close()
		fixture.drupal.Close()
		removeRoot()
	}
	return fixture
}

// useArchive rebuilds the backend around a different archive.
func (fixture *commitFixture) useArchive(t *testing.T, archive *testutil.RecordingArchive) {
	backend, err := filexfer.New(&filexfer.Deps{
		Config:      fixture.context.Config,
		IdAllocator: fixture.context.UniqueIdClient,
		Archive:     archive,
		Progress:    fixture.context.Progress,
		Log:         fixture.context.MessageLog,
	})
	require.Nil(t, err)
	fixture.backend = testutil.NewCountingBackend(backend)
	fixture.context.Backend = fixture.backend
}

func (fixture *commitFixture) stagingDir(t *testing.T, session *models.Session) string {
	dir, err := fixture.backend.Backend.(*filexfer.LocalBackend).StagingDir(session)
	require.Nil(t, err)
	return dir
}

// provisionedSession creates and provisions a session owned by alice
// and writes files of the given sizes into its staging area.
func (fixture *commitFixture) provisionedSession(t *testing.T, sizes ...int) *models.Session {
	session := models.NewSession("alice", "workers test upload")
	blob, err := fixture.backend.GenerateCredentials(session)
	require.Nil(t, err)
	session.CredentialBlob = blob
	require.Nil(t, fixture.context.SessionStore.Insert(session))
	require.Nil(t, fixture.backend.Provision(session))
	_, err = testutil.WriteSizedFiles(fixture.stagingDir(t, session), sizes...)
	require.Nil(t, err)
	return session
}

// startedSession is a provisioned session that has been moved to
// processing, as SessionService.Commit would.
func (fixture *commitFixture) startedSession(t *testing.T, sizes ...int) *models.Session {
	session := fixture.provisionedSession(t, sizes...)
	taskReference := uuid.NewV4().String()
	started, err := fixture.context.SessionStore.StartCommit(session.Id, "alice", taskReference)
	require.Nil(t, err)
	require.True(t, started)
	session.TaskReference = taskReference
	session.Processing = true
	return session
}

func (fixture *commitFixture) reload(t *testing.T, session *models.Session) *models.Session {
	reloaded, err := fixture.context.SessionStore.GetById(session.Id)
	require.Nil(t, err)
	return reloaded
}
