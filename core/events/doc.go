// Package events defines the typed turn-output event contract.
//
// Every event the runtime streams back during a turn is decoded into
// exactly one of the variants below, delivered to the caller's sink in
// arrival order:
//
//   - Message (turn_output.message): a conversational message with a role
//     (system, user, assistant, thought, tool), content, and optional
//     structured metadata.
//   - ToolCall (turn_output.tool_call): the assistant invoking a tool with
//     stringified parameters. The wire payload carries no identifier, so
//     one is synthesized at decode time.
//   - ToolResult (turn_output.tool_result): the outcome of a tool call,
//     with the raw result pretty-printed into Output.
//   - FinalResponse (turn_output.final_response): the terminal assistant
//     answer for the turn.
//
// Error frames from the runtime do not get their own variant: they are
// folded into a Message with an error marker in its metadata, so a sink
// only ever handles the four shapes above.
package events
