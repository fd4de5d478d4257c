package mcpserver

// RecordFormatContract describes the maintenance record format that LLM
// consumers should follow when creating or completing records.
const RecordFormatContract = `# Upkeep Record Format Contract

Every maintenance record handled through these tools MUST follow this contract.

## Dates

All date-time fields use the wire format ` + "`" + `YYYY-MM-DDTHH:mm` + "`" + `:
fixed width, 24-hour clock, no seconds, no timezone suffix.
Example: ` + "`" + `2025-03-14T09:30` + "`" + `.

## Frequencies

` + "`" + `frequency` + "`" + ` is one of:

| value | next occurrence |
|---|---|
| daily | +1 day |
| weekly | +7 days |
| monthly | +1 calendar month |
| quarterly | +3 calendar months |
| semi_annual | +6 calendar months |
| annual | +12 calendar months |
| custom | +custom_days days |

` + "`" + `custom_days` + "`" + ` is meaningful only when frequency is ` + "`" + `custom` + "`" + `;
for every other frequency it is ignored and cleared. Month-based advancement
clamps to the last valid day of the target month (Jan 31 + 1 month lands on
the last day of February, never in March).

## Rules

1. A new record MUST NOT carry a completed date; completion happens through
   the ` + "`" + `complete_maintenance` + "`" + ` tool.
2. A completion date must fall within 15 days (either direction) of the
   scheduled date.
3. Machine and topic selections are optional.
4. ` + "`" + `status` + "`" + ` in responses is derived (completed / overdue / pending),
   never supplied by callers.
`
