// Package main defines the CLI structure using kong. The surface is
// deliberately subcommand-free per spec §6: one task document in,
// one artifact out.
package main

// CLI is the single flags-only entry point.
type CLI struct {
	TaskConfig        string `name:"task-config" required:"" help:"Path to the task definition YAML document."`
	Resume            string `name:"resume" help:"Resume a prior run by its task ID; events are correlated under the same ID."`
	ExportConversation bool   `name:"export-conversation" help:"Serialize the full conversation alongside the output artifact (overrides the task document's parameters.export_conversation if set)."`
	Redact            bool   `name:"redact" help:"Redact MODULE_RESULT/MODULE_ERROR bodies in the exported conversation artifact only."`
	Config            string `name:"config" help:"Operator configuration TOML path (default: conclave.toml in the working directory)."`
}
