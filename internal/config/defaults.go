package config

// DefaultConfigYAML is the annotated configuration written by
// `caseanalyzer init`. Keep it in sync with Loader.setDefaults.
const DefaultConfigYAML = `# case-analyzer configuration
#
# Every key can be overridden with an environment variable:
# CASEANALYZER_<SECTION>_<KEY>, e.g. CASEANALYZER_REASONING_API_KEY.

log:
  level: info        # debug, info, warn, error
  format: auto       # auto, text, json

reasoning:
  provider: anthropic   # anthropic, openai
  api_key: ""           # prefer CASEANALYZER_REASONING_API_KEY
  models:
    fast: claude-3-5-haiku-latest
    reasoning: claude-sonnet-4-20250514
  max_tokens:
    fast: 4096
    reasoning: 8192
  rate_limit:
    rps: 2
    burst: 4
  cache:
    enabled: true
    ttl: 1h

pipeline:
  call_timeout: 2m
  retry:
    max_attempts: 2
    base_delay: 1s
    max_delay: 10s
  min_statement_chars: 20
  max_statement_chars: 12000
  max_description_chars: 2000
  parallel_extraction: true

costs:
  fast:
    input_per_mtok: 0.80
    output_per_mtok: 4.00
  reasoning:
    input_per_mtok: 3.00
    output_per_mtok: 15.00

store:
  backend: sqlite    # sqlite, memory
  path: .caseanalyzer/jobs.db

input:
  dir: cases

batch:
  workers: 4
  limit: 20

server:
  host: 127.0.0.1
  port: 8090
  cors_origins: []

report:
  dir: .caseanalyzer/reports
`
