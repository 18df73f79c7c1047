package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// ScanResult holds the fields extracted from a document photo.
type ScanResult struct {
	DocumentType      string `json:"document_type"`
	Name              string `json:"name"`
	IssuingAuthority  string `json:"issuing_authority"`
	ExpiryDate        string `json:"expiry_date"`
	RenewalPeriodDays int    `json:"renewal_period_days"`
}

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

const scanSystemPrompt = `You are a document data extraction and renewal analysis assistant. Extract document information and determine a sensible renewal reminder period from the document type and country-specific regulations.

Extract the following information:
- document_type: one of (license, passport, permit, insurance, certification, other)
- name: the document name/title
- issuing_authority: the organization that issued the document
- expiry_date: expiration date in YYYY-MM-DD format
- renewal_period_days: suggested number of reminder days before expiry

For renewal_period_days, weigh how urgent the document type is, its processing time, the renewal rules of the user's country and how complex the renewal process is.

Typical ranges:
- Passports: 90-180 days
- Driver's Licenses: 30-60 days
- Insurance: 30-45 days
- Work Permits/Visas: 60-90 days
- Professional Certifications: 60-90 days
- Vehicle Registration: 30 days
- Simple permits: 14-30 days

%s

Respond ONLY with valid JSON:
{
  "document_type": "license",
  "name": "Driver's License",
  "issuing_authority": "Department of Motor Vehicles",
  "expiry_date": "2025-12-31",
  "renewal_period_days": 45
}`

// BuildScanRequest returns the multimodal extraction request for an image data URL.
func BuildScanRequest(imageDataURL, country string) ChatRequest {
	countryLine := "Country unknown - use general best practices."
	userText := "Extract the document information from this image and determine a renewal reminder period based on the document type."
	if country != "" {
		countryLine = fmt.Sprintf("User is in: %s. Consider this country's specific renewal timelines and regulations.", country)
		userText = fmt.Sprintf("Extract the document information from this image and determine a renewal reminder period based on the document type and %s's regulations.", country)
	}
	return ChatRequest{
		Messages: []Message{
			{Role: "system", Content: fmt.Sprintf(scanSystemPrompt, countryLine)},
			{Role: "user", Content: []ContentPart{
				{Type: "text", Text: userText},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageDataURL}},
			}},
		},
	}
}

// Scan extracts document fields from an image.
func (c *Client) Scan(ctx context.Context, imageDataURL, country string) (*ScanResult, error) {
	c.log.Info("ai_scan_start", "country", country)
	content, err := c.reply(ctx, BuildScanRequest(imageDataURL, country))
	if err != nil {
		return nil, err
	}
	match := jsonObject.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("%w: no json in scan reply", ErrAnalysisFailed)
	}
	var out ScanResult
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil, fmt.Errorf("%w: decode scan reply: %v", ErrAnalysisFailed, err)
	}
	return &out, nil
}
