package workflow

// Extraction prompt sent with each page image. The schema block mirrors the
// RawLine JSON shape so responses parse directly; total_amount captures the
// stated invoice total when the page carries one (typically the last page).
const extractInstructions = `You are reading one page of a subcontractor ` +
	`invoice for plant and haulage work. Extract every invoice line visible ` +
	`on this page. A line claims work performed by an operator on a date at ` +
	`a site, split into on-site, travel, and yard hours, with an hourly rate ` +
	`and a line total.`

const extractSchema = `Output ONLY valid JSON in the following schema:

{
  "lines": [
    {
      "work_date": "YYYY-MM-DD or null",
      "site_location": "string",
      "role": "string",
      "hours_on_site": number,
      "hours_travel": number,
      "hours_yard": number,
      "rate_per_hour": number,
      "line_total": number
    }
  ],
  "total_amount": number or null
}

Rules:
- Use decimal hours for all hour fields (e.g. 7.5 for 7 hours 30 minutes).
- If a field is not present, use 0 for numeric fields and null for work_date.
- Set total_amount only if this page states the invoice total; otherwise null.
- If this page contains no invoice lines, output an empty lines array.
- DO NOT include any extra fields.
- DO NOT include any explanation or text outside the JSON.`

// ComposePrompt builds the extraction system prompt for a single page.
func ComposePrompt() string {
	return extractInstructions + "\n\n" + extractSchema
}
