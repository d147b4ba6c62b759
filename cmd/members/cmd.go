package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/pkg/errors"
)

var errHelp = errors.New("help provided")

type memberService interface {
	ImportCSV(ctx context.Context, r io.Reader, opts service.ImportOptions) (*service.ImportResult, *service.Error)
	ExportCSV(ctx context.Context, w io.Writer, opts service.ExportOptions) *service.Error
}

type commandLine struct {
	members memberService
	migrate func(ctx context.Context) error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  import -file FILE [-atomic] [-skip-invalid]   - create members from a CSV file")
	fmt.Fprintln(cli.out, "  export -file FILE [-group NAME] [-contact-groups N] - write members to a CSV file")
	fmt.Fprintln(cli.out, "  migrate                                        - apply pending database migrations")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importCmd.SetOutput(cli.out)
	importFile := importCmd.String("file", "", "CSV file to read members from.")
	importAtomic := importCmd.Bool("atomic", false, "Create all members in one transaction.")
	importSkip := importCmd.Bool("skip-invalid", false, "Report malformed rows and continue.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportCmd.SetOutput(cli.out)
	exportFile := exportCmd.String("file", "", "CSV file to write members to.")
	exportGroup := exportCmd.String("group", "", "Only export members of this group.")
	exportContacts := exportCmd.Int("contact-groups", 0, "Minimum number of emergency contact column groups.")

	switch args[1] {
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importMembers(ctx, *importFile, service.ImportOptions{
			Atomic:      *importAtomic,
			SkipInvalid: *importSkip,
		})
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *exportFile == "" || *exportContacts < 0 {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportMembers(ctx, *exportFile, service.ExportOptions{
			GroupName:     *exportGroup,
			ContactGroups: *exportContacts,
		})
	case "migrate":
		if err := cli.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "migrations applied")
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) importMembers(ctx context.Context, path string, opts service.ImportOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open import file")
	}
	defer f.Close()

	res, svcErr := cli.members.ImportCSV(ctx, f, opts)
	if res != nil {
		fmt.Fprintf(cli.out, "%d members created, %d rows failed\n", res.Created, len(res.Failed))
		for _, failed := range res.Failed {
			fmt.Fprintf(cli.out, "  %s\n", failed.Error())
		}
	}
	if svcErr != nil {
		return svcErr
	}
	return nil
}

func (cli *commandLine) exportMembers(ctx context.Context, path string, opts service.ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}

	if svcErr := cli.members.ExportCSV(ctx, f, opts); svcErr != nil {
		f.Close()
		return svcErr
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close export file")
	}

	fmt.Fprintf(cli.out, "members written to %s\n", path)
	return nil
}
