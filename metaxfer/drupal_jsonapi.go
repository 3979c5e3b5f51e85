package metaxfer

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/network"
	"github.com/op/go-logging"
)

// DrupalPublisher creates Drupal nodes through the JSON:API module.
// Every session gets one node of Metadata.DrupalContentType holding
// the manifest, authored by Metadata.DrupalContentAuthor. A session
// with a catalog document gets a second node built from that
// document.
type DrupalPublisher struct {
	config *models.Config
	client *network.DrupalClient
	log    *logging.Logger
}

func NewDrupalPublisher(config *models.Config, log *logging.Logger) (Publisher, error) {
	if err := config.EnsureDrupalConfig(); err != nil {
		return nil, err
	}
	timeout, err := config.HTTPTimeoutDuration()
	if err != nil {
		return nil, err
	}
	client := network.NewDrupalClient(config.Metadata.DrupalURL, timeout,
		config.Metadata.DrupalHeaders, config.DrupalAPIUser(), config.DrupalAPIKey())
	return &DrupalPublisher{config: config, client: client, log: log}, nil
}

// Publish returns the id of the manifest node followed by the id of
// the catalog document node, if there was one. All errors are
// PublishFailures.
func (publisher *DrupalPublisher) Publish(session *models.Session, manifest models.Manifest) ([]string, error) {
	author := publisher.config.Metadata.DrupalContentAuthor
	user, err := publisher.client.FindUserByDisplayName(author)
	if err != nil {
		return nil, models.PublishFailure.New("Cannot list Drupal users: %v", err)
	}
	if user == nil {
		return nil, models.PublishFailure.New("No Drupal user with display name %s", author)
	}

	// Everything that can be checked locally is checked before the
	// first node is created.
	bundle := ""
	if session.HasCatalogDocument() {
		if bundle, err = CatalogBundle(session.CatalogDocument); err != nil {
			return nil, models.PublishFailure.New("Session %s catalog document: %v", session.Id, err)
		}
	}
	document, err := publisher.manifestDocument(session, manifest, user.Id)
	if err != nil {
		return nil, models.PublishFailure.Wrap(err)
	}
	contentType := publisher.config.Metadata.DrupalContentType
	resp := publisher.client.NodeCreate(contentType, document)
	if resp.Error != nil {
		return nil, models.PublishFailure.New("Cannot create %s node for session %s: %v",
			contentType, session.Id, resp.Error)
	}
	ids := []string{resp.Resource().Id}
	publisher.log.Info("Created %s node %s for session %s", contentType, ids[0], session.Id)

	if bundle == "" {
		return ids, nil
	}
	resp = publisher.client.NodeCreate(bundle, session.CatalogDocument)
	if resp.Error != nil {
		cause := models.PublishFailure.New("Cannot create %s node for session %s: %v",
			bundle, session.Id, resp.Error)
		return publisher.rollBack(session, contentType, ids), cause
	}
	ids = append(ids, resp.Resource().Id)
	publisher.log.Info("Created %s node %s for session %s", bundle, resp.Resource().Id, session.Id)
	return ids, nil
}

// rollBack deletes the manifest node after the catalog document node
// could not be created. It returns the ids still in the catalog.
func (publisher *DrupalPublisher) rollBack(session *models.Session, contentType string, ids []string) []string {
	resp := publisher.client.NodeDelete(contentType, ids[0])
	if resp.Error != nil {
		publisher.log.Warning("Cannot delete %s node %s of failed session %s: %v",
			contentType, ids[0], session.Id, resp.Error)
		return ids
	}
	publisher.log.Info("Deleted %s node %s of failed session %s", contentType, ids[0], session.Id)
	return []string{}
}

func (publisher *DrupalPublisher) manifestDocument(session *models.Session, manifest models.Manifest, authorId string) ([]byte, error) {
	manifestJson, err := manifest.ToJson()
	if err != nil {
		return nil, err
	}
	resource := &network.DrupalResource{
		Type: network.NodeType(publisher.config.Metadata.DrupalContentType),
		Attributes: map[string]interface{}{
			"title":               session.Name,
			"field_pacifica_size": manifest.TotalSize(),
			"field_file_data": map[string]string{
				"value": manifestJson,
			},
		},
		Relationships: map[string]interface{}{
			"uid": map[string]interface{}{
				"data": map[string]string{
					"type": "user--user",
					"id":   authorId,
				},
			},
		},
	}
	return json.Marshal(map[string]interface{}{"data": resource})
}

// CheckCatalogDocument accepts an empty document, or a JSON:API
// document whose data.type is a node type.
func CheckCatalogDocument(document json.RawMessage) error {
	session := &models.Session{CatalogDocument: document}
	if !session.HasCatalogDocument() {
		return nil
	}
	_, err := CatalogBundle(document)
	return err
}

// CatalogBundle reads data.type from a JSON:API document and returns
// the node bundle it names.
func CatalogBundle(document json.RawMessage) (string, error) {
	doc := struct {
		Data *network.DrupalResource `json:"data"`
	}{}
	if err := json.Unmarshal(document, &doc); err != nil {
		return "", fmt.Errorf("Catalog document must be a JSON object: %v", err)
	}
	if doc.Data == nil {
		return "", fmt.Errorf("document has no data")
	}
	return network.NodeBundle(doc.Data.Type)
}
