// Package sqlinline holds the worker's raw SQL. Each query starts with a
// `--sql <uuid>` marker line consumed by infra.SQLRunner for log correlation.
package sqlinline

// QNextPendingJobs lists the oldest PENDING jobs. The worker hands each id
// to the orchestrator, whose conditional PENDING -> PROCESSING update is
// what actually claims the job, so racing workers are harmless.
const QNextPendingJobs = `--sql 7c1d2a40-93fb-4a2e-bb5e-61f0f8b1c9aa
select id
from jobs
where status = 'PENDING'
order by created_at asc
limit $1;
`

// QJobCountsByStatus feeds the worker's periodic queue-depth log line.
const QJobCountsByStatus = `--sql 2e8f6d13-5b0a-47c8-9f3d-8a4e2c7b1d55
select status, count(*)
from jobs
group by status;
`
