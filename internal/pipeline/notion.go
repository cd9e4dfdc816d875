// =============================================================================
// notion.go - deal archival to Notion
// =============================================================================
//
// Archives each issue's deals to a Notion database so past newsletters stay
// searchable. The database can be created on first run under a parent page,
// or an existing database ID can be supplied.
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/jomei/notionapi"
)

// DealArchiver writes summarized deals to a Notion database.
type DealArchiver struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
}

// NewDealArchiver creates an archiver. databaseID may be empty when the
// database will be created via CreateDatabase.
func NewDealArchiver(token string, databaseID string) (*DealArchiver, error) {
	if token == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is required")
	}

	da := &DealArchiver{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
	if databaseID != "" {
		da.dbID = notionapi.DatabaseID(databaseID)
	}

	return da, nil
}

// CreateDatabase creates the deal archive database under the given page.
func (da *DealArchiver) CreateDatabase(ctx context.Context, pageID string) error {
	if pageID == "" {
		return fmt.Errorf("NOTION_PAGE_ID is required to create a new database")
	}

	dbRequest := &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(pageID),
		},
		Title: []notionapi.RichText{
			{
				Text: &notionapi.Text{
					Content: "Deal Newsletter Archive",
				},
			},
		},
		Properties: notionapi.PropertyConfigs{
			"Title": notionapi.TitlePropertyConfig{
				Type: notionapi.PropertyConfigTypeTitle,
			},
			"URL": notionapi.URLPropertyConfig{
				Type: notionapi.PropertyConfigTypeURL,
			},
			"Source": notionapi.SelectPropertyConfig{
				Type: notionapi.PropertyConfigTypeSelect,
				Select: notionapi.Select{
					Options: []notionapi.Option{
						{Name: "Bloomberg", Color: notionapi.ColorBlue},
						{Name: "Reuters", Color: notionapi.ColorOrange},
						{Name: "Marketwatch", Color: notionapi.ColorGreen},
						{Name: "Cnbc", Color: notionapi.ColorPurple},
						{Name: "PR Newswire", Color: notionapi.ColorYellow},
					},
				},
			},
			"Type": notionapi.SelectPropertyConfig{
				Type: notionapi.PropertyConfigTypeSelect,
				Select: notionapi.Select{
					Options: []notionapi.Option{
						{Name: "VC", Color: notionapi.ColorGreen},
						{Name: "M&A", Color: notionapi.ColorBlue},
						{Name: "IPO", Color: notionapi.ColorPurple},
						{Name: "IB", Color: notionapi.ColorYellow},
					},
				},
			},
			"Amount": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			"Summary": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			"Score": notionapi.NumberPropertyConfig{
				Type: notionapi.PropertyConfigTypeNumber,
				Number: notionapi.NumberFormat{
					Format: notionapi.FormatNumber,
				},
			},
		},
	}

	db, err := da.client.Database.Create(ctx, dbRequest)
	if err != nil {
		return fmt.Errorf("failed to create Notion database: %w", err)
	}

	da.dbID = notionapi.DatabaseID(db.ID)
	fmt.Fprintf(os.Stderr, "Notion database created: %s\n", db.ID)
	fmt.Fprintf(os.Stderr, "   Database URL: https://notion.so/%s\n", db.ID)

	return nil
}

// ArchiveDeal writes one deal as a page in the archive database.
func (da *DealArchiver) ArchiveDeal(ctx context.Context, deal SummarizedDeal) error {
	if da.dbID == "" {
		return fmt.Errorf("database ID not set")
	}

	properties := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: deal.Title,
					},
				},
			},
		},
		"URL": notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  deal.URL,
		},
		"Source": notionapi.SelectProperty{
			Type: notionapi.PropertyTypeSelect,
			Select: notionapi.Option{
				Name: deal.Source,
			},
		},
		"Type": notionapi.SelectProperty{
			Type: notionapi.PropertyTypeSelect,
			Select: notionapi.Option{
				Name: deal.DealType,
			},
		},
		"Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: deal.PriorityScore,
		},
	}

	if deal.Amount != "" {
		properties["Amount"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: deal.Amount,
					},
				},
			},
		}
	}

	if deal.AISummary != "" {
		properties["Summary"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						// Notion rich text limit
						Content: truncateString(deal.AISummary, 2000),
					},
				},
			},
		}
	}

	pageRequest := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: da.dbID,
		},
		Properties: properties,
	}

	if _, err := da.client.Page.Create(ctx, pageRequest); err != nil {
		return fmt.Errorf("failed to archive deal: %w", err)
	}

	return nil
}

// ArchiveDeals archives every deal, continuing past per-deal failures.
func (da *DealArchiver) ArchiveDeals(ctx context.Context, deals []SummarizedDeal) error {
	archived := 0
	for _, deal := range deals {
		if err := da.ArchiveDeal(ctx, deal); err != nil {
			warnf("failed to archive deal %s: %v", deal.URL, err)
			continue
		}
		archived++
	}

	infof("archived %d/%d deals to Notion", archived, len(deals))
	return nil
}
