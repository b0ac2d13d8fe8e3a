// Command cmsimport reconciles tabular batches against a CMS.
//
// Each receive run validates the batch, looks up the items that already
// exist, and creates or updates the rest. Results are recorded in a local
// journal that the runs subcommands read back.
package main
