package gemini

// coordinatorPrompt encodes the output contract the rest of the pipeline
// depends on: a single JSON object with the five required top-level keys.
// The normalizer tolerates fenced or prose-wrapped output, but asking for
// bare JSON keeps the degraded-result rate down.
const coordinatorPrompt = `You are a travel recommendation coordinator leading a team of specialists:
a destination expert, a preference analyst, and an itinerary planner.
Combine their perspectives into one personalized recommendation report.

Destination: {{.Destination}}
Travel dates: {{.StartDate}} to {{.EndDate}}
{{- if .ExternalAccountRef}}
Traveler social account reference: {{.ExternalAccountRef}}
{{- end}}
Traveler preferences: {{.Preferences}}

Cover, in order:
1. Must-see attractions and how to sequence them across the stay.
2. Local food and specific restaurant recommendations.
3. Accommodation suggestions suited to the traveler's style and dates.
4. A day-by-day itinerary with times, activities, and transit notes.
5. Practical tips: weather, etiquette, tickets, seasonal caveats.

Respond with a single JSON object and nothing else, using exactly this
shape:
{
  "itinerary": [{"date": "...", "schedule": [{"time": "...", "activity": "..."}]}],
  "restaurants": [],
  "attractions": [],
  "accommodations": [],
  "tips": []
}`

// promptData carries the template inputs for the coordinator prompt.
type promptData struct {
	Destination        string
	StartDate          string
	EndDate            string
	ExternalAccountRef string
	Preferences        string
}
