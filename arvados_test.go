package main

import (
	"gopkg.in/check.v1"
)

type arvadosSuite struct{}

var _ = check.Suite(&arvadosSuite{})

func (s *arvadosSuite) TestTranslatePaths(c *check.C) {
	runner := arvadosContainerRunner{}
	pdhPath := "/keep/acbd18db4cc2f85cedef654fccc4a4d8+3/genomes/mm10.fa.gz"
	uuidPath := "zzzzz-4zz18-aaaaaaaaaaaaaaa/reads.fq"
	stdin := "-"
	err := runner.TranslatePaths(&pdhPath, &uuidPath, &stdin)
	c.Assert(err, check.IsNil)
	c.Check(pdhPath, check.Equals, "/mnt/acbd18db4cc2f85cedef654fccc4a4d8+3/genomes/mm10.fa.gz")
	c.Check(uuidPath, check.Equals, "/mnt/zzzzz-4zz18-aaaaaaaaaaaaaaa/reads.fq")
	c.Check(stdin, check.Equals, "-")
	c.Check(runner.Mounts, check.DeepEquals, map[string]map[string]interface{}{
		"/mnt/acbd18db4cc2f85cedef654fccc4a4d8+3": {"kind": "collection", "uuid": "acbd18db4cc2f85cedef654fccc4a4d8+3"},
		"/mnt/zzzzz-4zz18-aaaaaaaaaaaaaaa":        {"kind": "collection", "uuid": "zzzzz-4zz18-aaaaaaaaaaaaaaa"},
	})

	local := "/tmp/mm10.fa"
	err = runner.TranslatePaths(&local)
	c.Check(err, check.ErrorMatches, `cannot find uuid in path: "/tmp/mm10.fa"`)
}

func (s *arvadosSuite) TestRunRequiresProject(c *check.C) {
	runner := arvadosContainerRunner{Prog: "true"}
	_, err := runner.Run()
	c.Check(err, check.ErrorMatches, `.*ProjectUUID not provided`)
}
