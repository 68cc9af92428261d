// Package config loads the dashboard configuration and page definitions.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PULSE_<SECTION>_<KEY>:
//
//	PULSE_SERVER_PORT=8080
//	PULSE_LOGGING_LEVEL=debug
//	PULSE_SHEETS_CREDENTIALS_FILE=/etc/pulse/service-account.json
//	PULSE_SHEETS_DEFAULT_SPREADSHEET_ID=1AbC...
//	PULSE_PAGES_FILE=configs/pages.yaml
//
// PULSE_CONFIG_FILE selects the YAML file; otherwise config.yaml and
// configs/config.yaml are checked.
//
// # Pages
//
// Every dashboard page is data, not code. A PageDefinition names its source
// sheet, maps headers to canonical fields, lists the stage-flag fields and
// their accepted tokens, and orders the funnel stages:
//
//	pages:
//	  - id: linkedin
//	    title: LinkedIn Outreach
//	    source: {kind: sheets, range: LinkedIn}
//	    columns: {"¿Invite Aceptada?": invite_accepted, ...}
//	    booleans: {fields: [invite_accepted, meeting_scheduled]}
//	    stages:
//	      - {name: Invite Accepted, field: invite_accepted}
//	      - {name: Meeting, field: meeting_scheduled}
//
// When no pages file is configured the built-in DefaultPages are used.
package config
