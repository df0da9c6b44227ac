// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevonJames/oip-arweave-indexer-sub000/fault"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template"
	"github.com/DevonJames/oip-arweave-indexer-sub000/template/mocks"
)

func TestResolveCachesTemplate(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	tmpl, err := template.Parse("tmpl-post", []byte(explicitPost))
	require.Nil(t, err, "parse error")

	source := mocks.NewMockSource(ctl)
	source.EXPECT().GetTemplate("tmpl-post").Return(tmpl, nil).Times(1)

	r, err := template.NewResolver(source, 2)
	require.Nil(t, err, "new resolver")

	got, err := r.Resolve("tmpl-post")
	assert.Nil(t, err, "first resolve")
	assert.Equal(t, tmpl, got, "wrong template")

	got, err = r.Resolve("did:arweave:tmpl-post")
	assert.Nil(t, err, "second resolve by did")
	assert.Equal(t, tmpl, got, "wrong cached template")
	assert.Equal(t, 1, r.Len(), "wrong cache length")
}

func TestResolveNotFound(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().GetTemplate("missing").Return(nil, nil).Times(2)

	r, err := template.NewResolver(source, 2)
	require.Nil(t, err, "new resolver")

	_, err = r.Resolve("missing")
	assert.True(t, fault.IsErrTemplate(err), "wrong error: %v", err)

	// not found is never cached
	_, err = r.Resolve("missing")
	assert.True(t, fault.IsErrTemplate(err), "wrong error: %v", err)
}

func TestResolverRemoveAndBound(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	r, err := template.NewResolver(source, 2)
	require.Nil(t, err, "new resolver")

	for _, id := range []string{"a", "b", "c"} {
		tmpl, err := template.Parse(id, []byte(explicitPost))
		require.Nil(t, err, "parse error")
		r.Add(tmpl)
	}
	assert.Equal(t, 2, r.Len(), "cache not bounded")

	r.Remove("did:arweave:c")
	assert.Equal(t, 1, r.Len(), "remove failed")

	source.EXPECT().GetTemplate("c").Return(nil, nil).Times(1)
	_, err = r.Resolve("c")
	assert.True(t, fault.IsErrTemplate(err), "removed template still resolved")

	r.Purge()
	assert.Equal(t, 0, r.Len(), "purge failed")
}
